package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartPruner is the slice of the cart service the job needs.
type CartPruner interface {
	PruneStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// CartPruneScheduler periodically deletes carts nobody touched within ttl.
type CartPruneScheduler struct {
	cron    *cron.Cron
	pruner  CartPruner
	spec    string
	ttl     time.Duration
	timeout time.Duration
}

func NewCartPruneScheduler(pruner CartPruner, spec string, ttl, timeout time.Duration) *CartPruneScheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CartPruneScheduler{
		cron:    cron.New(),
		pruner:  pruner,
		spec:    spec,
		ttl:     ttl,
		timeout: timeout,
	}
}

func (s *CartPruneScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for cart pruning", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return fmt.Errorf("schedule cart pruning %q: %w", s.spec, err)
	}

	s.cron.Start()
	logger.Info("Cart prune scheduler started", map[string]interface{}{
		"schedule": s.spec,
		"ttl":      s.ttl.String(),
	})
	return nil
}

// RunOnce performs a single pruning pass.
func (s *CartPruneScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.pruner.PruneStale(ctx, s.ttl); err != nil {
		logger.Error("Scheduled cart pruning failed", err, nil)
	}
}

// Stop waits for a running job to finish.
func (s *CartPruneScheduler) Stop() {
	logger.Info("Stopping cart prune scheduler", nil)
	<-s.cron.Stop().Done()
}
