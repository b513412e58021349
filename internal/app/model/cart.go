package model

import (
	"time"
)

// Cart is keyed by customer and replaced wholesale on every save.
type Cart struct {
	CustomerID uint       `gorm:"primarykey;autoIncrement:false" json:"customerId"`
	Items      []CartLine `gorm:"serializer:json;type:text" json:"items"`
	UpdatedAt  time.Time  `gorm:"index" json:"updatedAt"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
