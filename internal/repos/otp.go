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

type OTPRepo interface {
	// CREATE / OVERWRITE
	Upsert(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error

	// READ
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error)
	LockByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error)

	// UPDATE
	Save(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error
}

type otpRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOTPRepo(db *gorm.DB, baseLog *logger.Logger) OTPRepo {
	return &otpRepo{db: db, log: baseLog.With("repo", "OTPRepo")}
}

// ----------------------------------------------------------------
// CREATE / OVERWRITE
// ----------------------------------------------------------------

// Upsert writes rec as the user's only record, overwriting the code,
// counters and timestamps of an existing row.
func (or *otpRepo) Upsert(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error {
	or.log.Info("Starting Upsert OTPRecord now...", "userID", rec.UserID)
	err := conn(ctx, tx, or.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "attempts_remaining", "blocked", "expires_at", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		or.log.Error("Failed to upsert otp record", "error", err)
		return err
	}
	or.log.Info("Successfully upserted otp record", "userID", rec.UserID)
	return nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

// GetByUserID returns nil, nil when the user has no record.
func (or *otpRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error) {
	var rec types.OTPRecord
	err := conn(ctx, tx, or.db).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		or.log.Debug("No otp record for user", "userID", userID)
		return nil, nil
	}
	if err != nil {
		or.log.Error("Failed to fetch otp record", "error", err)
		return nil, err
	}
	return &rec, nil
}

// LockByUserID loads the record with SELECT ... FOR UPDATE. It must run
// inside a transaction for the lock to mean anything.
func (or *otpRepo) LockByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OTPRecord, error) {
	if tx == nil {
		or.log.Warn("LockByUserID called without a transaction, row lock is released immediately")
	}
	or.log.Debug("Locking otp record (for update)", "userID", userID)
	var rec types.OTPRecord
	err := conn(ctx, tx, or.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		or.log.Error("Failed to lock otp record", "error", err)
		return nil, err
	}
	return &rec, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (or *otpRepo) Save(ctx context.Context, tx *gorm.DB, rec *types.OTPRecord) error {
	err := conn(ctx, tx, or.db).
		Model(&types.OTPRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"code":               rec.Code,
			"attempts_remaining": rec.AttemptsRemaining,
			"blocked":            rec.Blocked,
			"expires_at":         rec.ExpiresAt,
			"updated_at":         rec.UpdatedAt,
		}).Error
	if err != nil {
		or.log.Error("Failed to save otp record", "error", err, "userID", rec.UserID)
		return err
	}
	or.log.Debug("Saved otp record", "userID", rec.UserID, "attemptsRemaining", rec.AttemptsRemaining, "blocked", rec.Blocked)
	return nil
}
