package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRepository_UpsertReplacesItems(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	repo := NewCartRepository(testDB)
	ctx := context.Background()

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &model.Cart{
		CustomerID: 1,
		Items:      []model.CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}},
	}))
	require.NoError(t, repo.Upsert(ctx, &model.Cart{
		CustomerID: 1,
		Items:      []model.CartLine{{ProductID: "c", Quantity: 3}},
	}))

	cart, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.CartLine{{ProductID: "c", Quantity: 3}}, cart.Items)

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartRepository_DeleteStale(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	repo := NewCartRepository(testDB)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, testDB.Create(&model.Cart{CustomerID: 1, Items: []model.CartLine{}, UpdatedAt: now.Add(-60 * 24 * time.Hour)}).Error)
	require.NoError(t, testDB.Create(&model.Cart{CustomerID: 2, Items: []model.CartLine{}, UpdatedAt: now}).Error)

	deleted, err := repo.DeleteStale(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, 2)
	assert.NoError(t, err)
}
