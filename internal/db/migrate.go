package db

import (
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// OrderModels are owned by the order/admin database.
var OrderModels = []interface{}{
	&model.User{},
	&model.Order{},
	&model.Cart{},
}

// CatalogModels are owned by the catalog database when it runs on Postgres.
var CatalogModels = []interface{}{
	&model.Product{},
	&model.Review{},
}

// Migrate runs AutoMigrate for models against conn.
func Migrate(conn *gorm.DB, name string, models ...interface{}) error {
	logger.Info("Running database migrations", map[string]interface{}{
		"database": name,
	})

	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err, map[string]interface{}{
			"database": name,
		})
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"database":     name,
		"models_count": len(models),
	})
	return nil
}
