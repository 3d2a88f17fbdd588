package types

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	ID     uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	UserID uuid.UUID   `gorm:"uniqueIndex;not null" json:"-"`
	User   *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Items  []*CartItem `gorm:"foreignKey:CartID" json:"cart_items"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (Cart) TableName() string {
	return "cart"
}

// TotalCost sums the item totals, rounded to cents.
func (c *Cart) TotalCost() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.TotalPrice()
	}
	return math.Round(total*100) / 100
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_item_cart_product;not null" json:"-"`
	Cart      *Cart     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CartID;references:ID" json:"-"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_item_cart_product;not null" json:"-"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"-"`
	Quantity  int       `gorm:"not null;default:1;column:quantity" json:"quantity"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_item"
}

func (ci *CartItem) TotalPrice() float64 {
	if ci.Product == nil {
		return 0
	}
	return math.Round(float64(ci.Quantity)*ci.Product.Price*100) / 100
}
