package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"type:text;column:description" json:"description"`
	Color       string    `gorm:"column:color" json:"color"`
	Material    string    `gorm:"column:material" json:"material"`
	Price       float64   `gorm:"type:numeric(10,2);not null;default:0;column:price" json:"price"`
	Length      float64   `gorm:"type:numeric(6,2);not null;default:0;column:length" json:"length"`
	Width       float64   `gorm:"type:numeric(6,2);not null;default:0;column:width" json:"width"`
	Height      float64   `gorm:"type:numeric(6,2);not null;default:0;column:height" json:"height"`
	MaximumLoad float64   `gorm:"type:numeric(6,2);not null;default:0;column:maximum_load" json:"maximum_load"`
	Rating      float64   `gorm:"type:numeric(2,1);not null;default:0;column:rating" json:"rating"`

	RoomCategoryID    uuid.UUID        `gorm:"index;not null" json:"-"`
	RoomCategory      *RoomCategory    `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoomCategoryID;references:ID" json:"-"`
	ProductCategoryID uuid.UUID        `gorm:"index;not null" json:"-"`
	ProductCategory   *ProductCategory `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductCategoryID;references:ID" json:"-"`
	ManufacturerID    uuid.UUID        `gorm:"index;not null" json:"-"`
	Manufacturer      *Manufacturer    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ManufacturerID;references:ID" json:"-"`

	IsAR    bool   `gorm:"not null;default:false;column:is_ar" json:"is_ar"`
	ARModel string `gorm:"column:ar_model" json:"ar_model,omitempty"`
	ARURL   string `gorm:"column:ar_url" json:"ar_url,omitempty"`
	Slug    string `gorm:"uniqueIndex;not null;column:slug" json:"slug"`

	// Images is a JSON array of public image URLs.
	Images     datatypes.JSON    `gorm:"column:images" json:"-"`
	Attributes datatypes.JSONMap `gorm:"column:attributes" json:"attributes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

func (Product) TableName() string {
	return "product"
}

// ImageURLs decodes Images. A malformed column yields no images.
func (p *Product) ImageURLs() []string {
	if len(p.Images) == 0 {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal(p.Images, &urls); err != nil {
		return []string{}
	}
	return urls
}

func (p *Product) SetImageURLs(urls []string) {
	if urls == nil {
		urls = []string{}
	}
	raw, _ := json.Marshal(urls)
	p.Images = datatypes.JSON(raw)
}

func (p *Product) AddImageURL(url string) {
	p.SetImageURLs(append(p.ImageURLs(), url))
}

// ProductFilter narrows a product listing. Empty slices and nil bounds do
// not constrain.
type ProductFilter struct {
	RoomCategories    []string
	ProductCategories []string
	Manufacturers     []string
	MinPrice          *float64
	MaxPrice          *float64
}
