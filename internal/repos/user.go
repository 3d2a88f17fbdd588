package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/types"
)

type UserRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, userEmail string) (*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
	GetByIDWithRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, user *types.User) error
	SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error
	UpdatePassword(ctx context.Context, tx *gorm.DB, userID uuid.UUID, hash string) error

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	ur.log.Info("Starting Create Users now...")
	if len(users) == 0 {
		ur.log.Debug("Users array is empty, returning empty slice", "count", 0)
		return []*types.User{}, nil
	}
	if err := conn(ctx, tx, ur.db).Create(&users).Error; err != nil {
		ur.log.Error("Failed to create users", "error", err)
		return nil, err
	}
	ur.log.Info("Successfully created users", "count", len(users))
	return users, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		ur.log.Debug("No userIDs provided, returning empty slice")
		return results, nil
	}
	if err := conn(ctx, tx, ur.db).Where("id IN ?", userIDs).Find(&results).Error; err != nil {
		ur.log.Error("Failed to fetch users by IDs", "error", err)
		return nil, err
	}
	ur.log.Debug("Fetched users by IDs", "count", len(results))
	return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	var results []*types.User
	if len(userEmails) == 0 {
		ur.log.Debug("No userEmails provided, returning empty slice")
		return results, nil
	}
	if err := conn(ctx, tx, ur.db).Where("email IN ?", userEmails).Find(&results).Error; err != nil {
		ur.log.Error("Failed to fetch users by emails", "error", err)
		return nil, err
	}
	ur.log.Debug("Fetched users by emails", "count", len(results))
	return results, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, userEmail string) (*types.User, error) {
	users, err := ur.GetByEmails(ctx, tx, []string{userEmail})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	var count int64
	if err := conn(ctx, tx, ur.db).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		ur.log.Error("Failed to check email existence", "error", err)
		return false, err
	}
	return count > 0, nil
}

// GetByIDWithRole loads the user together with Role.Permissions, which the
// permission middleware needs. Returns nil, nil when missing.
func (ur *userRepo) GetByIDWithRole(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var user types.User
	err := conn(ctx, tx, ur.db).
		Preload("Role.Permissions").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to fetch user with role", "error", err)
		return nil, err
	}
	return &user, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

// Update saves the profile fields of user. Password, activation and role
// are changed only through their dedicated methods.
func (ur *userRepo) Update(ctx context.Context, tx *gorm.DB, user *types.User) error {
	ur.log.Info("Starting Update User now...", "userID", user.ID)
	err := conn(ctx, tx, ur.db).
		Model(&types.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_name":        user.FirstName,
			"last_name":         user.LastName,
			"phone_number":      user.PhoneNumber,
			"avatar_bucket_key": user.AvatarBucketKey,
			"avatar_url":        user.AvatarURL,
			"image_bucket_key":  user.ImageBucketKey,
			"image_url":         user.ImageURL,
		}).Error
	if err != nil {
		ur.log.Error("Failed to update user", "error", err)
		return err
	}
	return nil
}

func (ur *userRepo) SetActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, active bool) error {
	if err := conn(ctx, tx, ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("is_active", active).Error; err != nil {
		ur.log.Error("Failed to set user active flag", "error", err, "userID", userID)
		return err
	}
	ur.log.Info("User active flag set", "userID", userID, "active", active)
	return nil
}

func (ur *userRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, userID uuid.UUID, hash string) error {
	if err := conn(ctx, tx, ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", hash).Error; err != nil {
		ur.log.Error("Failed to update user password", "error", err, "userID", userID)
		return err
	}
	ur.log.Info("User password updated", "userID", userID)
	return nil
}

// ----------------------------------------------------------------
// FULL (HARD) DELETE
// ----------------------------------------------------------------

func (ur *userRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	if err := conn(ctx, tx, ur.db).
		Unscoped().
		Where("id IN ?", userIDs).
		Delete(&types.User{}).Error; err != nil {
		ur.log.Error("Failed to hard-delete users", "error", err)
		return err
	}
	ur.log.Info("Hard-deleted users", "count", len(userIDs))
	return nil
}
