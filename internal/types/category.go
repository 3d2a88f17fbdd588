package types

import (
	"time"

	"github.com/google/uuid"
)

type RoomCategory struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	Name     string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	ImageURL string    `gorm:"column:image_url" json:"image,omitempty"`
	Slug     string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (RoomCategory) TableName() string {
	return "room_category"
}

type ProductCategory struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	Name     string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	ImageURL string    `gorm:"column:image_url" json:"image,omitempty"`
	Slug     string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (ProductCategory) TableName() string {
	return "product_category"
}
