package service

import (
	"sort"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
)

// customerLedger folds orders into per-customer running totals.
type customerLedger map[uint]*model.CustomerSummary

// touch merges order into the ledger. Orders without a customer are not
// aggregatable and are reported as skipped.
func (l customerLedger) touch(order *model.Order) bool {
	if !order.HasCustomer() {
		return false
	}
	id := *order.CustomerID

	entry, seen := l[id]
	if !seen {
		entry = &model.CustomerSummary{
			CustomerID:    id,
			Name:          order.CustomerName,
			Email:         order.CustomerEmail,
			LastOrderDate: order.CreatedAt,
		}
		l[id] = entry
	} else if order.CreatedAt.After(entry.LastOrderDate) {
		entry.LastOrderDate = order.CreatedAt
		if order.CustomerName != "" {
			entry.Name = order.CustomerName
		}
		if order.CustomerEmail != "" {
			entry.Email = order.CustomerEmail
		}
	}

	entry.TotalOrders++
	entry.TotalSpent += order.Total()
	return true
}

// summaries finalizes averages and orders customers by spend, then recency,
// then id.
func (l customerLedger) summaries() []model.CustomerSummary {
	out := make([]model.CustomerSummary, 0, len(l))
	for _, entry := range l {
		s := *entry
		if s.TotalOrders > 0 {
			s.AverageOrderValue = s.TotalSpent / float64(s.TotalOrders)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent > b.TotalSpent
		}
		if !a.LastOrderDate.Equal(b.LastOrderDate) {
			return a.LastOrderDate.After(b.LastOrderDate)
		}
		return a.CustomerID < b.CustomerID
	})
	return out
}

// aggregateCustomers builds the customer report over orders. window is the
// scan bound that produced orders and is echoed in the stats.
func aggregateCustomers(orders []model.Order, window int) ([]model.CustomerSummary, model.CustomerStats) {
	ledger := customerLedger{}
	for i := range orders {
		ledger.touch(&orders[i])
	}

	customers := ledger.summaries()

	stats := model.CustomerStats{
		TotalCustomers: len(customers),
		OrdersScanned:  len(orders),
		Window:         window,
	}
	for _, c := range customers {
		stats.TotalRevenue += c.TotalSpent
	}
	return customers, stats
}
