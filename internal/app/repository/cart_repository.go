package repository

import (
	"context"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Get(ctx context.Context, customerID uint) (*model.Cart, error)
	Upsert(ctx context.Context, cart *model.Cart) error
	Delete(ctx context.Context, customerID uint) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Get(ctx context.Context, customerID uint) (*model.Cart, error) {
	logger.Debug("Fetching cart from database", map[string]interface{}{
		"customer_id": customerID,
	})

	var cart model.Cart
	if err := r.db.WithContext(ctx).First(&cart, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Upsert replaces the stored cart of cart.CustomerID wholesale.
func (r *cartRepository) Upsert(ctx context.Context, cart *model.Cart) error {
	logger.Debug("Saving cart to database", map[string]interface{}{
		"customer_id": cart.CustomerID,
		"items":       len(cart.Items),
	})

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(cart).Error
	if err != nil {
		logger.Error("Failed to save cart to database", err, map[string]interface{}{
			"customer_id": cart.CustomerID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, customerID uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Cart{}, "customer_id = ?", customerID).Error; err != nil {
		logger.Error("Failed to delete cart from database", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return err
	}
	return nil
}

// DeleteStale removes carts not touched since before.
func (r *cartRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&model.Cart{})
	if result.Error != nil {
		logger.Error("Failed to prune stale carts", result.Error, map[string]interface{}{
			"before": before,
		})
		return 0, result.Error
	}

	logger.Debug("Stale carts pruned", map[string]interface{}{
		"deleted": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
