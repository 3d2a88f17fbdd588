package types

import (
	"time"

	"github.com/google/uuid"
)

type Manufacturer struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	Name         string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description  string    `gorm:"type:text;column:description" json:"description,omitempty"`
	LogoURL      string    `gorm:"column:logo_url" json:"logo,omitempty"`
	Slug         string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	InstagramURL string    `gorm:"column:instagram_url" json:"instagram_url,omitempty"`
	TelegramURL  string    `gorm:"column:telegram_url" json:"telegram_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (Manufacturer) TableName() string {
	return "manufacturer"
}
