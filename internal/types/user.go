package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RoleID *uuid.UUID `gorm:"index" json:"role_id,omitempty"`
	Role   *Role      `gorm:"constraint:OnDelete:SET NULL;foreignKey:RoleID;references:ID" json:"role,omitempty"`

	Email           string  `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PhoneNumber     *string `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Password        string  `gorm:"not null;column:password" json:"-"`
	FirstName       string  `gorm:"not null;column:first_name" json:"first_name"`
	LastName        string  `gorm:"not null;column:last_name" json:"last_name"`
	AvatarBucketKey string  `gorm:"column:avatar_bucket_key" json:"-"`
	AvatarURL       string  `gorm:"column:avatar_url" json:"avatar_url"`
	ImageBucketKey  string  `gorm:"column:image_bucket_key" json:"-"`
	ImageURL        string  `gorm:"column:image_url" json:"image_url,omitempty"`

	// IsActive flips to true only once the registration code is confirmed.
	IsActive   bool      `gorm:"not null;default:false;column:is_active" json:"is_active"`
	IsStaff    bool      `gorm:"not null;default:false;column:is_staff" json:"is_staff"`
	DateJoined time.Time `gorm:"not null;default:now();column:date_joined" json:"date_joined"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "user"
}
