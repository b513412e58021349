package model

import (
	"math"
	"time"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// MaxOrderStatusLength is the width of orders.status. Statuses are free-form;
// the constants above are the ones the storefront itself writes or reacts to.
const MaxOrderStatusLength = 20

var paymentStatuses = map[PaymentStatus]bool{
	PaymentStatusPending:  true,
	PaymentStatusPaid:     true,
	PaymentStatusFailed:   true,
	PaymentStatusRefunded: true,
}

func (s PaymentStatus) Valid() bool {
	return paymentStatuses[s]
}

// Order is owned by the order/admin database. CustomerName and CustomerEmail
// are copied from the customer account when the order is written.
type Order struct {
	ID              uint          `gorm:"primarykey" json:"id"`
	CustomerID      *uint         `gorm:"index" json:"customerId,omitempty"`
	CustomerName    string        `gorm:"type:varchar(120)" json:"customerName"`
	CustomerEmail   string        `gorm:"type:varchar(255)" json:"customerEmail"`
	TotalAmount     *float64      `json:"totalAmount"` // NULL on legacy rows
	Status          OrderStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"paymentStatus"`
	TrackingNumber  string        `gorm:"type:varchar(100)" json:"trackingNumber,omitempty"`
	ShippingAddress string        `gorm:"type:text" json:"shippingAddress"`
	Items           []OrderLine   `gorm:"serializer:json;type:text" json:"items"`
	CreatedAt       time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (Order) TableName() string {
	return "orders"
}

// Total returns the order total, treating a missing or non-finite value as 0.
func (o *Order) Total() float64 {
	if o.TotalAmount == nil {
		return 0
	}
	v := *o.TotalAmount
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// HasCustomer reports whether the order can be attributed to a customer.
func (o *Order) HasCustomer() bool {
	return o.CustomerID != nil && *o.CustomerID != 0
}

// OrderLine is a snapshot of a product at checkout time.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// OrderPatch carries the optional fields of an admin order update.
type OrderPatch struct {
	Status         *OrderStatus
	TrackingNumber *string
	PaymentStatus  *PaymentStatus
}

func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.TrackingNumber == nil && p.PaymentStatus == nil
}

// OrderFeedEvent is pushed to connected admin clients when orders change.
type OrderFeedEvent struct {
	Type     string      `json:"type"`
	OrderIDs []uint      `json:"orderIds"`
	Status   OrderStatus `json:"status,omitempty"`
	At       time.Time   `json:"at"`
}
