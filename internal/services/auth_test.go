package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/otp"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/types"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

type authFixture struct {
	svc       *authService
	otp       *otpService
	users     *memUserRepo
	tokens    *memUserTokenRepo
	otps      *memOTPRepo
	clock     *testClock
	notifier  *recordingNotifier
	publisher *recordingPublisher
	avatars   *MockAvatarService
	customer  *types.Role
	code      int
}

func newAuthFixture() *authFixture {
	log := logger.NewNop()
	f := &authFixture{
		users:     newMemUserRepo(),
		tokens:    newMemUserTokenRepo(),
		otps:      newMemOTPRepo(),
		clock:     newTestClock(),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		avatars:   &MockAvatarService{},
		customer:  &types.Role{ID: uuid.New(), Name: types.RoleCustomer},
		code:      482913,
	}
	txm := &fakeTx{stores: []snapshotter{f.users, f.tokens, f.otps}}
	roles := &MockRoleRepo{
		GetByNamesFunc: func(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Role, error) {
			return []*types.Role{f.customer}, nil
		},
	}
	f.otp = NewOTPService(log, txm, f.otps, f.notifier, nil, false, otp.DefaultPolicy(), f.clock).(*otpService)
	f.otp.generate = func() (int, error) { return f.code, nil }
	account := NewAccountService(log, f.users, f.notifier, f.publisher)
	credential := NewCredentialService(log, f.users, nil, f.notifier)
	f.svc = NewAuthService(log, txm, f.users, f.tokens, roles, f.otp, account, credential, f.avatars,
		"test-secret", time.Hour, 24*time.Hour).(*authService)
	f.svc.now = f.clock.Now
	return f
}

func (f *authFixture) register(t *testing.T) *types.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email:           "  Ada@Example.com ",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Password:        "Sofa2024x",
		PasswordConfirm: "Sofa2024x",
	})
	require.NoError(t, err)
	return user
}

func (f *authFixture) activeUser(t *testing.T) *types.User {
	t.Helper()
	user := f.register(t)
	require.NoError(t, f.svc.ConfirmEmail(context.Background(), user.Email, f.code))
	return user
}

func TestRegisterCreatesInactiveUserAndIssuesCode(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t)

	stored := f.users.get(user.ID)
	assert.Equal(t, "ada@example.com", stored.Email)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.RoleID)
	assert.Equal(t, f.customer.ID, *stored.RoleID)
	assert.NotEqual(t, "Sofa2024x", stored.Password)
	assert.True(t, utils.CheckPassword(stored.Password, "Sofa2024x"))
	assert.Equal(t, 1, f.avatars.calls)
	assert.NotEmpty(t, stored.AvatarURL)

	rec := f.otps.get(user.ID)
	assert.Equal(t, f.code, rec.Code)
	assert.Equal(t, []string{"OTP Verification"}, f.notifier.subjects())
}

func TestRegisterRejections(t *testing.T) {
	f := newAuthFixture()
	f.register(t)

	tests := []struct {
		name  string
		in    RegisterInput
		code  string
		field string
	}{
		{
			name:  "email taken",
			in:    RegisterInput{Email: "ADA@example.com", FirstName: "A", LastName: "B", Password: "Sofa2024x", PasswordConfirm: "Sofa2024x"},
			code:  errordata.CodeEmailTaken,
			field: "email",
		},
		{
			name:  "missing first name",
			in:    RegisterInput{Email: "bob@example.com", LastName: "B", Password: "Sofa2024x", PasswordConfirm: "Sofa2024x"},
			code:  errordata.CodeValidation,
			field: "first_name",
		},
		{
			name:  "confirmation mismatch",
			in:    RegisterInput{Email: "bob@example.com", FirstName: "B", LastName: "B", Password: "Sofa2024x", PasswordConfirm: "Sofa2024y"},
			code:  errordata.CodeConfirmationMismatch,
			field: "password_confirm",
		},
		{
			name:  "too short",
			in:    RegisterInput{Email: "bob@example.com", FirstName: "B", LastName: "B", Password: "a1", PasswordConfirm: "a1"},
			code:  errordata.CodeTooShort,
			field: "password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			var appErr *errordata.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
	assert.Len(t, f.users.users, 1)
}

func TestRegisterSurvivesAvatarFailure(t *testing.T) {
	f := newAuthFixture()
	f.avatars.CreateAndUploadUserAvatarFunc = func(ctx context.Context, user *types.User) error {
		return assert.AnError
	}
	user := f.register(t)
	assert.Empty(t, f.users.get(user.ID).AvatarURL)
}

func TestConfirmEmailActivates(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, user.Email, 111111), errordata.ErrInvalidCode)
	assert.False(t, f.users.get(user.ID).IsActive)

	require.NoError(t, f.svc.ConfirmEmail(ctx, "ADA@example.com", f.code))
	assert.True(t, f.users.get(user.ID).IsActive)
	assert.Equal(t, []string{"OTP Verification", "Account Confirmation"}, f.notifier.subjects())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, EventAccountActivated, f.publisher.events[0].Event)

	rec := f.otps.get(user.ID)
	assert.Equal(t, 3, rec.AttemptsRemaining)
	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, user.Email, f.code), errordata.ErrExpired, "a code is single-use")
}

func TestConfirmEmailSaveFailureSendsNothing(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t)
	f.otps.SaveErr = errors.New("connection reset")

	err := f.svc.ConfirmEmail(context.Background(), user.Email, f.code)
	require.Error(t, err)
	assert.False(t, f.users.get(user.ID).IsActive)
	assert.Equal(t, []string{"OTP Verification"}, f.notifier.subjects())
	assert.Empty(t, f.publisher.events)
}

func TestConfirmPasswordResetSaveFailureSendsNothing(t *testing.T) {
	f := newAuthFixture()
	user := f.activeUser(t)
	oldHash := f.users.get(user.ID).Password
	ctx := context.Background()
	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	f.otps.SaveErr = errors.New("connection reset")

	err := f.svc.ConfirmPasswordReset(ctx, user.Email, f.code, "Sofa2025x", "Sofa2025x")
	require.Error(t, err)
	assert.Equal(t, oldHash, f.users.get(user.ID).Password)
	assert.NotContains(t, f.notifier.subjects(), "Password Reset Confirmation")
}

func TestRegisterStoreFailureSendsNoCode(t *testing.T) {
	f := newAuthFixture()
	f.otps.UpsertErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:           "ada@example.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Password:        "Sofa2024x",
		PasswordConfirm: "Sofa2024x",
	})
	require.Error(t, err)
	assert.Empty(t, f.users.users)
	assert.Empty(t, f.notifier.subjects())
}

func TestUnknownEmailLooksLikeMissingRecord(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	unknown := f.svc.ConfirmEmail(ctx, "nobody@example.com", 123456)
	assert.ErrorIs(t, unknown, errordata.ErrNotFound)

	user := f.register(t)
	f.otps.remove(user.ID)
	missing := f.svc.ConfirmEmail(ctx, user.Email, 123456)
	assert.Equal(t, unknown.Error(), missing.Error())

	resetUnknown := f.svc.ConfirmPasswordReset(ctx, "nobody@example.com", 123456, "Sofa2025x", "Sofa2025x")
	assert.Equal(t, unknown.Error(), resetUnknown.Error())
}

func TestResendAndResetRequestAreGeneric(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	assert.NoError(t, f.svc.ResendOTP(ctx, "nobody@example.com"))
	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, f.otps.records)
}

func TestResendRestoresAttempts(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := f.register(t)
	for i := 0; i < 3; i++ {
		_ = f.svc.ConfirmEmail(ctx, user.Email, 1)
	}
	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, user.Email, f.code), errordata.ErrBlocked)

	f.code = 555555
	require.NoError(t, f.svc.ResendOTP(ctx, user.Email))
	require.NoError(t, f.svc.ConfirmEmail(ctx, user.Email, 555555))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := f.activeUser(t)

	f.code = 246810
	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))

	err := f.svc.ConfirmPasswordReset(ctx, user.Email, 246810, "Sofa2024x", "Sofa2024x")
	assert.ErrorIs(t, err, errordata.ErrPasswordUnchanged)

	err = f.svc.ConfirmPasswordReset(ctx, user.Email, 246810, "Chair2025y", "Chair2025z")
	assert.ErrorIs(t, err, errordata.ErrConfirmationMismatch)
	assert.Equal(t, 3, f.otps.get(user.ID).AttemptsRemaining, "a rejected password does not spend the code")

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, user.Email, 246810, "Chair2025y", "Chair2025y"))
	assert.True(t, utils.CheckPassword(f.users.get(user.ID).Password, "Chair2025y"))
	assert.Contains(t, f.notifier.subjects(), "Password Reset Confirmation")

	err = f.svc.ConfirmPasswordReset(ctx, user.Email, 246810, "Table2026z", "Table2026z")
	assert.ErrorIs(t, err, errordata.ErrExpired)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	user := f.activeUser(t)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "wrong", "Chair2025y", "Chair2025y"), errordata.ErrCurrentPasswordMismatch)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "Sofa2024x", "Sofa2024x", "Sofa2024x"), errordata.ErrPasswordUnchanged)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "Sofa2024x", "short1", "short2"), errordata.ErrConfirmationMismatch)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, "Sofa2024x", "short1", "short1"), errordata.ErrTooShort)

	require.NoError(t, f.svc.ChangePassword(ctx, "Sofa2024x", "Chair2025y", "Chair2025y"))
	assert.True(t, utils.CheckPassword(f.users.get(user.ID).Password, "Chair2025y"))
	assert.Contains(t, f.notifier.subjects(), "Password Change Confirmation")

	assert.ErrorIs(t, f.svc.ChangePassword(context.Background(), "a", "b", "b"), errordata.ErrUnauthorized)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := f.register(t)

	_, _, err := f.svc.Login(ctx, user.Email, "Sofa2024x")
	assert.ErrorIs(t, err, errordata.ErrAccountNotVerified)

	require.NoError(t, f.svc.ConfirmEmail(ctx, user.Email, f.code))

	_, _, err = f.svc.Login(ctx, user.Email, "nope")
	assert.ErrorIs(t, err, errordata.ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "ghost@example.com", "Sofa2024x")
	assert.ErrorIs(t, err, errordata.ErrInvalidCredentials)

	access, refresh, err := f.svc.Login(ctx, " ADA@example.com", "Sofa2024x")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	authed, err := f.svc.SetContextFromToken(ctx, access)
	require.NoError(t, err)
	rd := requestdata.GetRequestData(authed)
	require.NotNil(t, rd)
	assert.Equal(t, user.ID, rd.UserID)
	assert.Equal(t, f.customer.ID, rd.RoleID)
	assert.Equal(t, refresh, rd.RefreshToken)

	require.NoError(t, f.svc.Logout(authed))
	_, err = f.svc.SetContextFromToken(ctx, access)
	assert.ErrorIs(t, err, errordata.ErrUnauthorized)
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.SetContextFromToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, errordata.ErrUnauthorized)

	ctx, err := f.svc.SetContextFromToken(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, requestdata.GetRequestData(ctx))
}

func TestRefreshRotates(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	user := f.activeUser(t)
	_, refresh, err := f.svc.Login(ctx, user.Email, "Sofa2024x")
	require.NoError(t, err)

	access2, refresh2, err := f.svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, refresh2)
	assert.NotEmpty(t, access2)

	_, _, err = f.svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, errordata.ErrUnauthorized, "a rotated token cannot be reused")

	f.clock.Advance(25 * time.Hour)
	_, _, err = f.svc.Refresh(ctx, refresh2)
	assert.ErrorIs(t, err, errordata.ErrUnauthorized)
	assert.Empty(t, f.tokens.tokens, "expired token is deleted")
}
