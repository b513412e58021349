package db

import (
	"testing"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDBMigratesAllTables(t *testing.T) {
	conn, err := SetupTestDB()
	require.NoError(t, err)
	defer CleanupTestDB(conn)

	for _, m := range append(append([]interface{}{}, OrderModels...), CatalogModels...) {
		assert.True(t, conn.Migrator().HasTable(m))
	}

	require.NoError(t, conn.Create(&model.Product{ID: "p1", Name: "Oak Table", Images: []string{"a.jpg"}}).Error)
	require.NoError(t, TruncateAllTables(conn))

	var count int64
	require.NoError(t, conn.Model(&model.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}
