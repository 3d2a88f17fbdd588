package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/types"
)

// ==============================================
// TRANSACTIONS
// ==============================================

type snapshotter interface {
	snapshot() func()
}

// fakeTx runs fn with a nil *gorm.DB and rolls registered stores back when
// fn fails.
type fakeTx struct {
	stores []snapshotter
	calls  int
}

func (ft *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ft.calls++
	restores := make([]func(), 0, len(ft.stores))
	for _, s := range ft.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// ==============================================
// CLOCK
// ==============================================

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ==============================================
// OTP REPOSITORY (in memory)
// ==============================================

type memOTPRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]types.OTPRecord
	saves     int
	UpsertErr error
	LockErr   error
	SaveErr   error
}

func newMemOTPRepo() *memOTPRepo {
	return &memOTPRepo{records: map[uuid.UUID]types.OTPRecord{}}
}

func (m *memOTPRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]types.OTPRecord, len(m.records))
	for k, v := range m.records {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.records = saved
		m.mu.Unlock()
	}
}

func (m *memOTPRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[rec.UserID]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.records[rec.UserID] = *rec
	return nil
}

func (m *memOTPRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memOTPRepo) LockByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error) {
	if m.LockErr != nil {
		return nil, m.LockErr
	}
	return m.GetByUserID(ctx, tx, userID)
}

func (m *memOTPRepo) Save(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records[rec.UserID] = *rec
	return nil
}

func (m *memOTPRepo) remove(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
}

func (m *memOTPRepo) get(userID uuid.UUID) types.OTPRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID]
}

// ==============================================
// USER REPOSITORY (in memory)
// ==============================================

type memUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]types.User
	CreateErr error
}

func newMemUserRepo(users ...*types.User) *memUserRepo {
	m := &memUserRepo{users: map[uuid.UUID]types.User{}}
	for _, u := range users {
		m.users[u.ID] = *u
	}
	return m
}

func (m *memUserRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]types.User, len(m.users))
	for k, v := range m.users {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.users = saved
		m.mu.Unlock()
	}
}

func (m *memUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m.users[u.ID] = *u
	}
	return users, nil
}

func (m *memUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := m.users[id]; ok {
			out = append(out, &u)
		}
	}
	return out, nil
}

func (m *memUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.User
	for _, email := range userEmails {
		for _, u := range m.users {
			if u.Email == email {
				u := u
				out = append(out, &u)
			}
		}
	}
	return out, nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, userEmail string) (*types.User, error) {
	users, _ := m.GetByEmails(ctx, tx, []string{userEmail})
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (m *memUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	u, _ := m.GetByEmail(ctx, tx, userEmail)
	return u != nil, nil
}

func (m *memUserRepo) GetByIDWithRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	users, _ := m.GetByIDs(ctx, tx, []uuid.UUID{userID})
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (m *memUserRepo) Update(ctx context.Context, tx *gorm.DB, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.PhoneNumber = user.PhoneNumber
	existing.AvatarBucketKey = user.AvatarBucketKey
	existing.AvatarURL = user.AvatarURL
	existing.ImageBucketKey = user.ImageBucketKey
	existing.ImageURL = user.ImageURL
	m.users[user.ID] = existing
	return nil
}

func (m *memUserRepo) SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.IsActive = active
	m.users[userID] = u
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID]
	u.Password = hash
	m.users[userID] = u
	return nil
}

func (m *memUserRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.users, id)
	}
	return nil
}

func (m *memUserRepo) get(userID uuid.UUID) types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID]
}

// ==============================================
// NOTIFICATIONS
// ==============================================

type sentMessage struct {
	Subject    string
	Body       string
	Recipients []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (rn *recordingNotifier) Send(ctx context.Context, subject, body string, recipients ...string) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	rn.sent = append(rn.sent, sentMessage{Subject: subject, Body: body, Recipients: recipients})
}

func (rn *recordingNotifier) subjects() []string {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	out := make([]string, 0, len(rn.sent))
	for _, m := range rn.sent {
		out = append(out, m.Subject)
	}
	return out
}

type MockTextService struct {
	SendTextFunc func(ctx context.Context, toNumber, body string) error
	sent         []string
}

func (m *MockTextService) SendText(ctx context.Context, toNumber, body string) error {
	m.sent = append(m.sent, toNumber)
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, toNumber, body)
	}
	return nil
}

type MockEmailService struct {
	SendEmailFunc func(ctx context.Context, toEmail, subject, plainText, htmlContent, emailType string) error
}

func (m *MockEmailService) SendEmail(ctx context.Context, toEmail, subject, plainText, htmlContent, emailType string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, toEmail, subject, plainText, htmlContent, emailType)
	}
	return nil
}

type publishedEvent struct {
	UserID uuid.UUID
	Event  string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (rp *recordingPublisher) PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.events = append(rp.events, publishedEvent{UserID: userID, Event: event})
}

// ==============================================
// USER TOKEN REPOSITORY (in memory)
// ==============================================

type memUserTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]types.UserToken
}

func newMemUserTokenRepo() *memUserTokenRepo {
	return &memUserTokenRepo{tokens: map[uuid.UUID]types.UserToken{}}
}

func (m *memUserTokenRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]types.UserToken, len(m.tokens))
	for k, v := range m.tokens {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		m.tokens = saved
		m.mu.Unlock()
	}
}

func (m *memUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range userTokens {
		m.tokens[t.ID] = *t
	}
	return userTokens, nil
}

func (m *memUserTokenRepo) find(match func(types.UserToken) bool) []*types.UserToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.UserToken
	for _, t := range m.tokens {
		if match(t) {
			t := t
			out = append(out, &t)
		}
	}
	return out
}

func (m *memUserTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
	return m.find(func(t types.UserToken) bool { return contains(accessTokens, t.AccessToken) }), nil
}

func (m *memUserTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
	return m.find(func(t types.UserToken) bool { return contains(refreshTokens, t.RefreshToken) }), nil
}

func (m *memUserTokenRepo) LockByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	found := m.find(func(t types.UserToken) bool { return t.RefreshToken == refreshToken })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (m *memUserTokenRepo) FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range userTokens {
		delete(m.tokens, t.ID)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ==============================================
// ROLE REPOSITORY
// ==============================================

type MockRoleRepo struct {
	CreateFunc               func(ctx context.Context, tx *gorm.DB, roles []*types.Role) ([]*types.Role, error)
	GetByIDsFunc             func(ctx context.Context, tx *gorm.DB, roleIDs []uuid.UUID) ([]*types.Role, error)
	GetByNamesFunc           func(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Role, error)
	AssociatePermissionsFunc func(ctx context.Context, tx *gorm.DB, roles []*types.Role, permissions []*types.Permission) error
}

func (m *MockRoleRepo) Create(ctx context.Context, tx *gorm.DB, roles []*types.Role) ([]*types.Role, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, roles)
	}
	return roles, nil
}

func (m *MockRoleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, roleIDs []uuid.UUID) ([]*types.Role, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, tx, roleIDs)
	}
	return nil, nil
}

func (m *MockRoleRepo) GetByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Role, error) {
	if m.GetByNamesFunc != nil {
		return m.GetByNamesFunc(ctx, tx, names)
	}
	return nil, nil
}

func (m *MockRoleRepo) AssociatePermissions(ctx context.Context, tx *gorm.DB, roles []*types.Role, permissions []*types.Permission) error {
	if m.AssociatePermissionsFunc != nil {
		return m.AssociatePermissionsFunc(ctx, tx, roles, permissions)
	}
	return nil
}

// ==============================================
// AVATARS AND STORAGE
// ==============================================

type MockAvatarService struct {
	CreateAndUploadUserAvatarFunc func(ctx context.Context, user *types.User) error
	calls                         int
}

func (m *MockAvatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	m.calls++
	if m.CreateAndUploadUserAvatarFunc != nil {
		return m.CreateAndUploadUserAvatarFunc(ctx, user)
	}
	user.AvatarURL = "https://cdn.test/" + user.ID.String() + ".png"
	return nil
}

func (m *MockAvatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	return bytes.Buffer{}, nil
}

type memBucket struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (b *memBucket) UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.contentTypes[key] = contentType
	return nil
}

func (b *memBucket) DeleteFile(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}
