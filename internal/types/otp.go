package types

import (
	"time"

	"github.com/google/uuid"
)

// OTPRecord holds the one live verification code of a user. Issuance
// overwrites the row in place, so there is never more than one per user.
type OTPRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID uuid.UUID `gorm:"uniqueIndex;not null"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`

	Code              int       `gorm:"not null;column:code"`
	AttemptsRemaining int       `gorm:"not null;default:3;column:attempts_remaining"`
	Blocked           bool      `gorm:"not null;default:false;column:blocked"`
	ExpiresAt         time.Time `gorm:"not null;column:expires_at"`

	// UpdatedAt anchors the lockout window. It is always written from the
	// service clock, never from the database default.
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (OTPRecord) TableName() string {
	return "otp_record"
}
