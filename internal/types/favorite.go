package types

import (
	"time"

	"github.com/google/uuid"
)

// Favorite is never deleted by the API; unliking flips IsLiked.
type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_favorite_user_product;not null"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_favorite_user_product;not null"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID"`
	IsLiked   bool      `gorm:"not null;default:true;column:is_liked"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Favorite) TableName() string {
	return "favorite"
}
