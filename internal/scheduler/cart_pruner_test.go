package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePruner struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (f *fakePruner) PruneStale(_ context.Context, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ttl)
	return 3, f.err
}

func (f *fakePruner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestCartPruneScheduler_RunOnce(t *testing.T) {
	pruner := &fakePruner{}
	s := NewCartPruneScheduler(pruner, "0 3 * * *", 48*time.Hour, 0)

	s.RunOnce()
	pruner.err = errors.New("db down")
	s.RunOnce()

	assert.Equal(t, []time.Duration{48 * time.Hour, 48 * time.Hour}, pruner.calls)
}

func TestCartPruneScheduler_InvalidSchedule(t *testing.T) {
	s := NewCartPruneScheduler(&fakePruner{}, "not a cron line", time.Hour, time.Second)
	assert.Error(t, s.Start())
}

func TestCartPruneScheduler_StartStop(t *testing.T) {
	pruner := &fakePruner{}
	s := NewCartPruneScheduler(pruner, "@every 1s", time.Hour, time.Second)

	assert.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return pruner.count() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
