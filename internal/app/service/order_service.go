package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
)

const FeedOrderPlaced = "order_placed"

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrProductNotForSale = errors.New("product cannot be ordered online")
)

type CheckoutInput struct {
	ShippingAddress string
}

type OrderService interface {
	// Checkout turns the customer's saved cart into a pending order.
	Checkout(ctx context.Context, customerID uint, input CheckoutInput) (*model.Order, error)
	ListMyOrders(ctx context.Context, customerID uint) ([]model.Order, error)
	GetMyOrder(ctx context.Context, customerID, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	mail         mailer.Sender
	tracker      analytics.Tracker
	feed         OrderFeed
	storeTimeout time.Duration
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	mail mailer.Sender,
	tracker analytics.Tracker,
	feed OrderFeed,
	storeTimeout time.Duration,
) OrderService {
	if tracker == nil {
		tracker = analytics.NewNoopTracker()
	}
	return &orderService{
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		mail:         mail,
		tracker:      tracker,
		feed:         feed,
		storeTimeout: storeTimeout,
	}
}

func (s *orderService) Checkout(ctx context.Context, customerID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Starting checkout", map[string]interface{}{
		"customer_id": customerID,
	})

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.userRepo.FindByID(storeCtx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	address := strings.TrimSpace(input.ShippingAddress)
	if address == "" {
		address = user.Address
	}
	if address == "" {
		return nil, invalid("shippingAddress", apperrors.ValidationRequired, "shippingAddress is required")
	}

	cart, err := s.cartRepo.Get(storeCtx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	lines, total, err := s.priceCart(storeCtx, cart.Items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		CustomerID:      &user.ID,
		CustomerName:    user.Name,
		CustomerEmail:   user.Email,
		TotalAmount:     &total,
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		ShippingAddress: address,
		Items:           lines,
	}
	if err := s.orderRepo.Create(storeCtx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.cartRepo.Delete(storeCtx, customerID); err != nil {
		logger.Warn("Cart was not cleared after checkout", map[string]interface{}{
			"customer_id": customerID,
			"order_id":    order.ID,
			"error":       err.Error(),
		})
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": customerID,
		"total":       total,
	})

	s.afterCheckout(ctx, order)
	return order, nil
}

// priceCart snapshots current catalog prices. Exclusive products without a
// list price cannot be bought online.
func (s *orderService) priceCart(ctx context.Context, items []model.CartLine) ([]model.OrderLine, float64, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.OrderLine, 0, len(items))
	var total float64
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
		if p.Exclusive && p.Price <= 0 {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotForSale, p.Name)
		}
		lines = append(lines, model.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		})
		total += p.Price * float64(item.Quantity)
	}
	return lines, math.Round(total*100) / 100, nil
}

func (s *orderService) afterCheckout(ctx context.Context, order *model.Order) {
	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventOrderPlaced, "server", fmt.Sprintf("%d", order.ID), map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total(),
		"items":    len(order.Items),
	}))

	if s.feed != nil {
		s.feed.Publish(model.OrderFeedEvent{
			Type:     FeedOrderPlaced,
			OrderIDs: []uint{order.ID},
			Status:   order.Status,
			At:       order.CreatedAt,
		})
	}

	if s.mail == nil {
		return
	}
	err := s.mail.Send(ctx, order.CustomerEmail, mailer.Message{
		Kind: mailer.KindOrderConfirmation,
		Data: map[string]interface{}{
			"orderId":      order.ID,
			"customerName": order.CustomerName,
			"total":        fmt.Sprintf("%.2f", order.Total()),
		},
	})
	if err != nil {
		logger.Warn("Order confirmation was not sent", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *orderService) ListMyOrders(ctx context.Context, customerID uint) ([]model.Order, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	orders, err := s.orderRepo.FindByCustomer(storeCtx, customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *orderService) GetMyOrder(ctx context.Context, customerID, orderID uint) (*model.Order, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.orderRepo.FindByID(storeCtx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	// Other customers' orders are reported as missing.
	if order.CustomerID == nil || *order.CustomerID != customerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
