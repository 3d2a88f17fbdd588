package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/normalization"
	"github.com/furnihome/furnihome-backend/internal/password"
	"github.com/furnihome/furnihome-backend/internal/repos"
	"github.com/furnihome/furnihome-backend/internal/requestdata"
	"github.com/furnihome/furnihome-backend/internal/types"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	RoleID string `json:"role_id,omitempty"`
}

type RegisterInput struct {
	Email           string
	FirstName       string
	LastName        string
	PhoneNumber     *string
	Password        string
	PasswordConfirm string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	ResendOTP(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, email string, code int) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email string, code int, newPassword, confirm string) error
	ChangePassword(ctx context.Context, current, newPassword, confirm string) error

	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error

	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log               *logger.Logger
	txm               repos.TxManager
	userRepo          repos.UserRepo
	userTokenRepo     repos.UserTokenRepo
	roleRepo          repos.RoleRepo
	otpService        OTPService
	accountService    AccountService
	credentialService CredentialService
	avatarService     AvatarService
	jwtSecretKey      string
	accessTTL         time.Duration
	refreshTTL        time.Duration
	now               func() time.Time
}

// NewAuthService wires the account flows. avatarService may be nil when no
// bucket is configured; users then start without an avatar.
func NewAuthService(
	log *logger.Logger,
	txm repos.TxManager,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	roleRepo repos.RoleRepo,
	otpService OTPService,
	accountService AccountService,
	credentialService CredentialService,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		log:               serviceLog,
		txm:               txm,
		userRepo:          userRepo,
		userTokenRepo:     userTokenRepo,
		roleRepo:          roleRepo,
		otpService:        otpService,
		accountService:    accountService,
		credentialService: credentialService,
		avatarService:     avatarService,
		jwtSecretKey:      jwtSecretKey,
		accessTTL:         accessTTL,
		refreshTTL:        refreshTTL,
		now:               time.Now,
	}
}

//----------------------------------------------------------------------------------------------------------------------
// Register, ResendOTP, ConfirmEmail
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	as.log.Info("Starting Register User now...")
	user := &types.User{
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
	}

	//1) Normalize and check required fields
	utils.NormalizeUserFields(user)
	if vErr := utils.ValidateRegistrationInput(as.log, user, in.Password); vErr != nil {
		return nil, vErr
	}

	//2) Email must be free
	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		as.log.Info("Email already registered", "email", user.Email)
		return nil, errordata.ErrEmailTaken
	}

	//3) Password policy, then hash
	if pErr := as.credentialService.Policy().Validate(password.Input{
		Email:   user.Email,
		New:     in.Password,
		Confirm: in.PasswordConfirm,
	}); pErr != nil {
		return nil, registrationField(pErr)
	}
	hash, err := utils.HashPassword(as.log, in.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash
	user.ID = uuid.New()
	user.DateJoined = as.now().UTC()

	//4) Avatar is cosmetic and never blocks registration
	if as.avatarService != nil {
		if aErr := as.avatarService.CreateAndUploadUserAvatar(ctx, user); aErr != nil {
			as.log.Warn("Failed to create user avatar, continuing without one", "error", aErr)
		}
	}

	//5) Create the inactive user and its first code together; the code is sent after commit
	var code int
	err = as.txm.WithTx(ctx, func(tx *gorm.DB) error {
		roles, rErr := as.roleRepo.GetByNames(ctx, tx, []string{types.RoleCustomer})
		if rErr != nil {
			return fmt.Errorf("failed to load customer role: %w", rErr)
		}
		if len(roles) > 0 {
			user.RoleID = &roles[0].ID
		} else {
			as.log.Warn("Customer role missing, registering user without a role")
		}
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return fmt.Errorf("failed to create user: %w", cErr)
		}
		c, sErr := as.otpService.Store(ctx, tx, user)
		if sErr != nil {
			return sErr
		}
		code = c
		return nil
	})
	if err != nil {
		as.log.Warn("Registration failed", "error", err)
		return nil, err
	}
	as.otpService.Deliver(ctx, user, code)
	as.log.Info("User registered", "userID", user.ID)
	return user, nil
}

// ResendOTP issues a fresh code to a known address and silently does
// nothing for an unknown one.
func (as *authService) ResendOTP(ctx context.Context, email string) error {
	return as.issueForEmail(ctx, email, "resend")
}

func (as *authService) ConfirmEmail(ctx context.Context, email string, code int) error {
	user, err := as.lookup(ctx, email)
	if err != nil {
		return err
	}
	return as.otpService.Redeem(ctx, user.ID, code, func(tx *gorm.DB) (Followup, error) {
		return as.accountService.Activate(ctx, tx, user)
	})
}

//----------------------------------------------------------------------------------------------------------------------
// Password reset and change
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	return as.issueForEmail(ctx, email, "password_reset")
}

// ConfirmPasswordReset spends the code only when the new password is
// accepted; a rejected password rolls back and leaves the code usable.
func (as *authService) ConfirmPasswordReset(ctx context.Context, email string, code int, newPassword, confirm string) error {
	user, err := as.lookup(ctx, email)
	if err != nil {
		return err
	}
	return as.otpService.Redeem(ctx, user.ID, code, func(tx *gorm.DB) (Followup, error) {
		return as.credentialService.ResetPassword(ctx, tx, user, newPassword, confirm)
	})
}

func (as *authService) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return errordata.ErrUnauthorized
	}
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return errordata.ErrUnauthorized
	}
	return as.credentialService.ChangePassword(ctx, users[0], current, newPassword, confirm)
}

func (as *authService) issueForEmail(ctx context.Context, email, purpose string) error {
	user, err := as.userRepo.GetByEmail(ctx, nil, normalization.ParseEmail(email))
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		as.log.Info("Code requested for unknown email, answering generically", "purpose", purpose)
		return nil
	}
	if _, err := as.otpService.Issue(ctx, user); err != nil {
		return err
	}
	as.log.Info("Code issued", "purpose", purpose, "userID", user.ID)
	return nil
}

// lookup reports an unknown email exactly like a missing code record.
func (as *authService) lookup(ctx context.Context, email string) (*types.User, error) {
	user, err := as.userRepo.GetByEmail(ctx, nil, normalization.ParseEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, errordata.ErrNotFound.WithField("otp")
	}
	return user, nil
}

func registrationField(err error) error {
	var appErr *errordata.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Field {
	case "new_password":
		return appErr.WithField("password")
	case "new_password_confirm":
		return appErr.WithField("password_confirm")
	}
	return err
}

//----------------------------------------------------------------------------------------------------------------------
// Login, Refresh, Logout
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (string, string, error) {
	//1) Normalize Input
	email := normalization.ParseEmail(userEmail)
	if vErr := utils.ValidateLoginInput(as.log, email, userPassword); vErr != nil {
		return "", "", vErr
	}

	//2) Credentials
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	if user == nil || !utils.CheckPassword(user.Password, userPassword) {
		as.log.Info("Login rejected, invalid email or password")
		return "", "", errordata.ErrInvalidCredentials
	}
	if !user.IsActive {
		as.log.Info("Login rejected, account not verified", "userID", user.ID)
		return "", "", errordata.ErrAccountNotVerified
	}

	//3) Tokens
	var accessToken, refreshToken string
	err = as.txm.WithTx(ctx, func(tx *gorm.DB) error {
		var tErr error
		accessToken, refreshToken, tErr = as.issueTokens(ctx, tx, user)
		return tErr
	})
	if err != nil {
		return "", "", err
	}
	as.log.Info("User logged in", "userID", user.ID)
	return accessToken, refreshToken, nil
}

// Refresh rotates a refresh token: the old pair is deleted and a new one
// issued. An expired token is deleted and rejected.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", errordata.NewValidation("refresh", "refresh token is required")
	}
	var accessToken, newRefreshToken string
	var outcome error
	err := as.txm.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := as.userTokenRepo.LockByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			return fmt.Errorf("error fetching refresh token: %w", err)
		}
		if existing == nil {
			outcome = errordata.ErrUnauthorized
			return nil
		}
		if dErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, []*types.UserToken{existing}); dErr != nil {
			return fmt.Errorf("failed to remove old refresh token: %w", dErr)
		}
		if existing.ExpiresAt.Before(as.now()) {
			as.log.Info("Refresh token expired", "userID", existing.UserID)
			outcome = errordata.ErrUnauthorized
			return nil
		}
		users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if uErr != nil {
			return fmt.Errorf("failed to load user for refresh: %w", uErr)
		}
		if len(users) == 0 {
			outcome = errordata.ErrUnauthorized
			return nil
		}
		var tErr error
		accessToken, newRefreshToken, tErr = as.issueTokens(ctx, tx, users[0])
		return tErr
	})
	if err != nil {
		as.log.Warn("Failed refresh transaction", "error", err)
		return "", "", err
	}
	if outcome != nil {
		return "", "", outcome
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		as.log.Warn("No token in request data, cannot log out")
		return errordata.ErrUnauthorized
	}
	found, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{rd.TokenString})
	if err != nil {
		return fmt.Errorf("error finding user token: %w", err)
	}
	if err := as.userTokenRepo.FullDeleteByTokens(ctx, nil, found); err != nil {
		return fmt.Errorf("error deleting user token: %w", err)
	}
	as.log.Info("User logged out", "userID", rd.UserID)
	return nil
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	accessToken, err := as.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("generate access token error: %w", err)
	}
	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
		return "", "", fmt.Errorf("create user token error: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	var roleID string
	if user.RoleID != nil && *user.RoleID != uuid.Nil {
		roleID = user.RoleID.String()
	}
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		RoleID: roleID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

//----------------------------------------------------------------------------------------------------------------------
// Context
//----------------------------------------------------------------------------------------------------------------------

// SetContextFromToken validates the JWT and checks it has not been logged
// out. An empty token leaves ctx untouched.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, errordata.Wrap(errordata.CodeUnauthorized, errordata.ErrUnauthorized.Message, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, errordata.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, errordata.Wrap(errordata.CodeUnauthorized, "invalid user ID in token", err)
	}
	var roleID uuid.UUID
	if claims.RoleID != "" {
		if roleID, err = uuid.Parse(claims.RoleID); err != nil {
			return ctx, errordata.Wrap(errordata.CodeUnauthorized, "invalid role ID in token", err)
		}
	}
	found, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("failed to fetch user token by access token: %w", err)
	}
	if len(found) == 0 {
		return ctx, errordata.ErrUnauthorized
	}
	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
		RoleID:       roleID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
