package model

import (
	"time"
)

// CustomerSummary is derived from recent orders and never persisted.
type CustomerSummary struct {
	CustomerID        uint      `json:"customerId"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	TotalOrders       int       `json:"totalOrders"`
	TotalSpent        float64   `json:"totalSpent"`
	LastOrderDate     time.Time `json:"lastOrderDate"`
	AverageOrderValue float64   `json:"averageOrderValue"`
}

type CustomerStats struct {
	TotalCustomers int     `json:"totalCustomers"`
	TotalRevenue   float64 `json:"totalRevenue"`
	OrdersScanned  int     `json:"ordersScanned"`
	Window         int     `json:"window"`
}
