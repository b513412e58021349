package repository

import (
	"context"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]model.Order, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	UpdatePartial(ctx context.Context, id uint, patch model.OrderPatch, now time.Time) error
	UpdateStatusBatch(ctx context.Context, ids []uint, status model.OrderStatus, now time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"customer_id": order.CustomerID,
		"items":       len(order.Items),
	})

	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"customer_id": order.CustomerID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
	})
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) FindByCustomer(ctx context.Context, customerID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by customer in database", map[string]interface{}{
		"customer_id": customerID,
	})

	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by customer in database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}

	logger.Debug("Orders found by customer in database", map[string]interface{}{
		"customer_id": customerID,
		"count":       len(orders),
	})
	return orders, nil
}

// ListRecent returns at most limit orders, newest first.
func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	logger.Debug("Listing recent orders from database", map[string]interface{}{
		"limit": limit,
	})

	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to list recent orders from database", err, map[string]interface{}{
			"limit": limit,
		})
		return nil, err
	}

	logger.Debug("Recent orders listed from database", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	logger.Debug("Listing orders from database", map[string]interface{}{
		"status": filter.Status,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})

	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count orders in database", err, nil)
		return nil, 0, err
	}

	var orders []model.Order
	if err := query.Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders from database", err, nil)
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdatePartial applies the non-nil fields of patch. It returns ErrNotFound
// when no order has the given id.
func (r *orderRepository) UpdatePartial(ctx context.Context, id uint, patch model.OrderPatch, now time.Time) error {
	updates := map[string]interface{}{"updated_at": now}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.TrackingNumber != nil {
		updates["tracking_number"] = *patch.TrackingNumber
	}
	if patch.PaymentStatus != nil {
		updates["payment_status"] = *patch.PaymentStatus
	}

	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": id,
		"fields":   len(updates) - 1,
	})

	result := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update order in database", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.Debug("Order updated in database", map[string]interface{}{
		"order_id": id,
	})
	return nil
}

// UpdateStatusBatch sets status and updated_at on every order in ids inside
// one transaction. If any id does not exist nothing is written and a
// *MissingOrdersError is returned.
func (r *orderRepository) UpdateStatusBatch(ctx context.Context, ids []uint, status model.OrderStatus, now time.Time) (int64, error) {
	logger.Debug("Updating order status in batch", map[string]interface{}{
		"count":  len(ids),
		"status": status,
	})

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []uint
		if err := tx.Model(&model.Order{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return err
		}

		if len(found) != len(ids) {
			present := make(map[uint]bool, len(found))
			for _, id := range found {
				present[id] = true
			}
			var missing []uint
			for _, id := range ids {
				if !present[id] {
					missing = append(missing, id)
				}
			}
			return newMissingOrdersError(missing)
		}

		result := tx.Model(&model.Order{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     status,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to update order status in batch", err, map[string]interface{}{
			"count":  len(ids),
			"status": status,
		})
		return 0, err
	}

	logger.Debug("Order status updated in batch", map[string]interface{}{
		"affected": affected,
		"status":   status,
	})
	return affected, nil
}
