package model

import (
	"time"
)

// Product lives in the catalog store. ID is a string so the same type can be
// backed by a relational row or a document ObjectID hex.
type Product struct {
	ID           string    `gorm:"primarykey;type:varchar(64)" json:"id" bson:"-"`
	Name         string    `gorm:"not null;index" json:"name" bson:"name"`
	Slug         string    `gorm:"type:varchar(160);uniqueIndex" json:"slug" bson:"slug"`
	Category     string    `gorm:"type:varchar(80);index" json:"category" bson:"category"`
	Price        float64   `gorm:"not null" json:"price" bson:"price"`
	Description  string    `gorm:"type:text" json:"description" bson:"description"`
	Material     string    `gorm:"type:varchar(80)" json:"material" bson:"material"`
	Images       []string  `gorm:"serializer:json;type:text" json:"images" bson:"images"`
	InStock      bool      `json:"inStock" bson:"inStock"`
	Rating       float64   `gorm:"default:0" json:"rating" bson:"rating"`
	ReviewCount  int       `gorm:"default:0" json:"reviewCount" bson:"reviewCount"`
	Exclusive    bool      `gorm:"default:false" json:"exclusive" bson:"exclusive"`
	PriceDisplay string    `gorm:"type:varchar(120)" json:"priceDisplay,omitempty" bson:"priceDisplay,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// PriceLabel is what the storefront shows in place of the numeric price.
func (p *Product) PriceLabel() string {
	if p.Exclusive && p.PriceDisplay != "" {
		return p.PriceDisplay
	}
	return ""
}
