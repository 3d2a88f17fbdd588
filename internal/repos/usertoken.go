package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type UserTokenRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error)

	// READ
	GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error)
	LockByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error)

	// FULL (HARD) DELETE
	FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (utr *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	utr.log.Info("Starting Create UserTokens now...")
	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}
	if err := conn(ctx, tx, utr.db).Create(&userTokens).Error; err != nil {
		utr.log.Error("Failed to create user tokens", "error", err)
		return nil, err
	}
	utr.log.Info("Successfully created user tokens", "count", len(userTokens))
	return userTokens, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (utr *userTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(accessTokens) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, utr.db).Where("access_token IN ?", accessTokens).Find(&results).Error; err != nil {
		utr.log.Error("Failed to fetch tokens by access token", "error", err)
		return nil, err
	}
	return results, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(refreshTokens) == 0 {
		return results, nil
	}
	if err := conn(ctx, tx, utr.db).Where("refresh_token IN ?", refreshTokens).Find(&results).Error; err != nil {
		utr.log.Error("Failed to fetch tokens by refresh token", "error", err)
		return nil, err
	}
	return results, nil
}

// LockByRefreshToken row-locks the token so two concurrent refreshes cannot
// both rotate it. Returns nil, nil when the token is unknown.
func (utr *userTokenRepo) LockByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	var tok types.UserToken
	err := conn(ctx, tx, utr.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("refresh_token = ?", refreshToken).
		First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utr.log.Error("Failed to lock refresh token", "error", err)
		return nil, err
	}
	return &tok, nil
}

//------------------------------------------------------------------------------
// FULL (HARD) DELETE
//------------------------------------------------------------------------------

func (utr *userTokenRepo) FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error {
	if len(userTokens) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(userTokens))
	for _, t := range userTokens {
		ids = append(ids, t.ID)
	}
	if err := conn(ctx, tx, utr.db).Where("id IN ?", ids).Delete(&types.UserToken{}).Error; err != nil {
		utr.log.Error("Failed to hard-delete user tokens", "error", err)
		return err
	}
	utr.log.Info("Hard-deleted user tokens", "count", len(ids))
	return nil
}
