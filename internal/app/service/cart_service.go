package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

const (
	maxCartLines    = 50
	maxLineQuantity = 99
)

type CartService interface {
	GetCart(ctx context.Context, customerID uint) (*model.Cart, error)
	// ReplaceCart stores items as the customer's whole cart. Repeated product
	// ids are merged into the first occurrence.
	ReplaceCart(ctx context.Context, customerID uint, items []model.CartLine) (*model.Cart, error)
	ClearCart(ctx context.Context, customerID uint) error
	PruneStale(ctx context.Context, ttl time.Duration) (int64, error)
}

type cartService struct {
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	storeTimeout time.Duration
	now          func() time.Time
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, storeTimeout time.Duration) CartService {
	return &cartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

func (s *cartService) GetCart(ctx context.Context, customerID uint) (*model.Cart, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	cart, err := s.cartRepo.Get(storeCtx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.Cart{CustomerID: customerID, Items: []model.CartLine{}}, nil
		}
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []model.CartLine{}
	}
	return cart, nil
}

func normalizeCartLines(items []model.CartLine) ([]model.CartLine, error) {
	merged := make([]model.CartLine, 0, len(items))
	index := make(map[string]int, len(items))

	for _, line := range items {
		id := strings.TrimSpace(line.ProductID)
		if id == "" {
			return nil, invalid("items", apperrors.ValidationRequired, "every item needs a productId")
		}
		if line.Quantity <= 0 {
			return nil, invalid("items", apperrors.ValidationInvalidRange, "item quantity must be positive")
		}
		if i, ok := index[id]; ok {
			merged[i].Quantity += line.Quantity
		} else {
			index[id] = len(merged)
			merged = append(merged, model.CartLine{ProductID: id, Quantity: line.Quantity})
		}
	}

	if len(merged) > maxCartLines {
		return nil, invalid("items", apperrors.ValidationTooLong, fmt.Sprintf("a cart holds at most %d products", maxCartLines))
	}
	for _, line := range merged {
		if line.Quantity > maxLineQuantity {
			return nil, invalid("items", apperrors.ValidationInvalidRange, fmt.Sprintf("item quantity must be at most %d", maxLineQuantity))
		}
	}
	return merged, nil
}

func (s *cartService) ReplaceCart(ctx context.Context, customerID uint, items []model.CartLine) (*model.Cart, error) {
	lines, err := normalizeCartLines(items)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if len(lines) > 0 {
		ids := make([]string, len(lines))
		for i, line := range lines {
			ids[i] = line.ProductID
		}
		found, err := s.productRepo.FindByIDs(storeCtx, ids)
		if err != nil {
			return nil, err
		}
		if len(found) != len(ids) {
			return nil, ErrProductNotFound
		}
	}

	cart := &model.Cart{CustomerID: customerID, Items: lines, UpdatedAt: s.now().UTC()}
	if err := s.cartRepo.Upsert(storeCtx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	logger.Debug("Cart replaced", map[string]interface{}{
		"customer_id": customerID,
		"items":       len(lines),
	})
	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, customerID uint) error {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()
	return s.cartRepo.Delete(storeCtx, customerID)
}

func (s *cartService) PruneStale(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	deleted, err := s.cartRepo.DeleteStale(storeCtx, s.now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}

	logger.Info("Stale carts pruned", map[string]interface{}{
		"deleted": deleted,
		"ttl":     ttl.String(),
	})
	return deleted, nil
}
