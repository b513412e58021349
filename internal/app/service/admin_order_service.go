package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
)

const (
	defaultBulkLimit     = 500
	maxTrackingNumberLen = 100
	defaultAdminPageSize = 50
	maxAdminPageSize     = 200

	FeedOrdersUpdated = "orders_updated"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderFeed receives order change notifications for live admin views.
type OrderFeed interface {
	Publish(event model.OrderFeedEvent)
}

type AdminOrderConfig struct {
	BulkLimit    int
	StoreTimeout time.Duration
}

type AdminOrderService interface {
	// BulkUpdateStatus sets status on every order in ids, all or nothing.
	BulkUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error)
	UpdateOrder(ctx context.Context, id uint, patch model.OrderPatch) error
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	ListOrders(ctx context.Context, status string, limit, offset int) ([]model.Order, int64, error)
}

type adminOrderService struct {
	orderRepo repository.OrderRepository
	tracker   analytics.Tracker
	feed      OrderFeed
	mail      mailer.Sender
	cfg       AdminOrderConfig
	now       func() time.Time
}

func NewAdminOrderService(
	orderRepo repository.OrderRepository,
	tracker analytics.Tracker,
	feed OrderFeed,
	mail mailer.Sender,
	cfg AdminOrderConfig,
) AdminOrderService {
	if cfg.BulkLimit <= 0 {
		cfg.BulkLimit = defaultBulkLimit
	}
	if tracker == nil {
		tracker = analytics.NewNoopTracker()
	}
	return &adminOrderService{
		orderRepo: orderRepo,
		tracker:   tracker,
		feed:      feed,
		mail:      mail,
		cfg:       cfg,
		now:       time.Now,
	}
}

// validateBulk checks the request shape and returns the distinct ids in
// first-seen order.
func (s *adminOrderService) validateBulk(ids []int64, status string) ([]uint, model.OrderStatus, error) {
	if len(ids) == 0 {
		return nil, "", invalid("orderIds", apperrors.ValidationRequired, "orderIds must be a non-empty array")
	}
	if len(ids) > s.cfg.BulkLimit {
		return nil, "", invalid("orderIds", apperrors.ValidationTooLong,
			fmt.Sprintf("orderIds may contain at most %d entries", s.cfg.BulkLimit))
	}

	seen := make(map[int64]bool, len(ids))
	distinct := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, "", invalid("orderIds", apperrors.ValidationInvalidID, "orderIds must contain only positive integers")
		}
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, uint(id))
		}
	}

	target, err := parseOrderStatus(status)
	if err != nil {
		return nil, "", err
	}
	return distinct, target, nil
}

func parseOrderStatus(raw string) (model.OrderStatus, error) {
	status := model.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if status == "" {
		return "", invalid("status", apperrors.ValidationRequired, "status is required")
	}
	if len(status) > model.MaxOrderStatusLength {
		return "", invalid("status", apperrors.ValidationTooLong, fmt.Sprintf("status must be at most %d characters", model.MaxOrderStatusLength))
	}
	return status, nil
}

func (s *adminOrderService) BulkUpdateStatus(ctx context.Context, ids []int64, status string) (int64, error) {
	orderIDs, target, err := s.validateBulk(ids, status)
	if err != nil {
		logger.Warn("Bulk order update rejected", map[string]interface{}{
			"count": len(ids),
			"error": err.Error(),
		})
		return 0, err
	}

	logger.Info("Bulk updating order status", map[string]interface{}{
		"count":  len(orderIDs),
		"status": target,
	})

	now := s.now().UTC()
	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	affected, err := s.orderRepo.UpdateStatusBatch(storeCtx, orderIDs, target, now)
	if err != nil {
		if missing, ok := repository.AsMissingOrders(err); ok {
			return 0, fmt.Errorf("%w: %s", ErrOrderNotFound, joinIDs(missing.IDs))
		}
		return 0, fmt.Errorf("bulk update order status: %w", err)
	}

	for _, id := range orderIDs {
		s.tracker.Track(ctx, analytics.NewEvent(analytics.EventOrderStatusChanged, "server", fmt.Sprintf("%d", id), map[string]interface{}{
			"order_id": id,
			"status":   string(target),
			"bulk":     true,
		}))
	}
	s.publish(orderIDs, target, now)

	logger.Info("Bulk order status update committed", map[string]interface{}{
		"affected": affected,
		"status":   target,
	})
	return affected, nil
}

func (s *adminOrderService) UpdateOrder(ctx context.Context, id uint, patch model.OrderPatch) error {
	if patch.Empty() {
		return invalid("body", apperrors.ValidationRequired, "at least one of status, trackingNumber or paymentStatus is required")
	}
	if patch.Status != nil {
		status, err := parseOrderStatus(string(*patch.Status))
		if err != nil {
			return err
		}
		patch.Status = &status
	}
	if patch.PaymentStatus != nil {
		ps := model.PaymentStatus(strings.ToLower(strings.TrimSpace(string(*patch.PaymentStatus))))
		if !ps.Valid() {
			return invalid("paymentStatus", apperrors.ValidationInvalidStatus, fmt.Sprintf("paymentStatus %q is not a known payment status", *patch.PaymentStatus))
		}
		patch.PaymentStatus = &ps
	}
	if patch.TrackingNumber != nil {
		tracking := strings.TrimSpace(*patch.TrackingNumber)
		if len(tracking) > maxTrackingNumberLen {
			return invalid("trackingNumber", apperrors.ValidationTooLong, fmt.Sprintf("trackingNumber must be at most %d characters", maxTrackingNumberLen))
		}
		patch.TrackingNumber = &tracking
	}

	now := s.now().UTC()
	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.orderRepo.UpdatePartial(storeCtx, id, patch, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("update order %d: %w", id, err)
	}

	logger.Info("Order updated by admin", map[string]interface{}{
		"order_id": id,
	})

	if patch.Status != nil {
		s.tracker.Track(ctx, analytics.NewEvent(analytics.EventOrderStatusChanged, "server", fmt.Sprintf("%d", id), map[string]interface{}{
			"order_id": id,
			"status":   string(*patch.Status),
		}))
		s.publish([]uint{id}, *patch.Status, now)

		if *patch.Status == model.OrderStatusShipped {
			s.notifyShipped(ctx, id)
		}
	}
	return nil
}

// notifyShipped emails the customer. Failures are logged only.
func (s *adminOrderService) notifyShipped(ctx context.Context, id uint) {
	if s.mail == nil {
		return
	}

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	order, err := s.orderRepo.FindByID(storeCtx, id)
	if err != nil || order.CustomerEmail == "" {
		return
	}

	err = s.mail.Send(ctx, order.CustomerEmail, mailer.Message{
		Kind: mailer.KindOrderShipped,
		Data: map[string]interface{}{
			"orderId":        order.ID,
			"trackingNumber": order.TrackingNumber,
		},
	})
	if err != nil {
		logger.Warn("Shipping notification was not sent", map[string]interface{}{
			"order_id": id,
			"error":    err.Error(),
		})
	}
}

func (s *adminOrderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	order, err := s.orderRepo.FindByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *adminOrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]model.Order, int64, error) {
	filter := repository.OrderFilter{Limit: limit, Offset: offset}
	if status != "" {
		parsed, err := parseOrderStatus(status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = parsed
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAdminPageSize
	}
	if filter.Limit > maxAdminPageSize {
		filter.Limit = maxAdminPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	storeCtx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	return s.orderRepo.List(storeCtx, filter)
}

func (s *adminOrderService) publish(ids []uint, status model.OrderStatus, at time.Time) {
	if s.feed == nil {
		return
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.feed.Publish(model.OrderFeedEvent{
		Type:     FeedOrdersUpdated,
		OrderIDs: sorted,
		Status:   status,
		At:       at,
	})
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
