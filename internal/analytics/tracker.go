package analytics

import (
	"context"
	"sync"

	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

// Tracker records analytics events. Track never blocks the caller on the
// transport and never fails the surrounding request.
type Tracker interface {
	Track(ctx context.Context, event Event)
	Close() error
}

type noopTracker struct{}

func NewNoopTracker() Tracker { return noopTracker{} }

func (noopTracker) Track(context.Context, Event) {}
func (noopTracker) Close() error                 { return nil }

type logTracker struct{}

// NewLogTracker writes events to the application log. Used when no broker
// is configured.
func NewLogTracker() Tracker { return logTracker{} }

func (logTracker) Track(_ context.Context, event Event) {
	logger.Info("Analytics event", map[string]interface{}{
		"event_id":   event.EventID,
		"event":      event.Name,
		"source":     event.Source,
		"key":        event.Key,
		"properties": event.Properties,
	})
}

func (logTracker) Close() error { return nil }

// MemoryTracker keeps events in memory.
type MemoryTracker struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryTracker() *MemoryTracker { return &MemoryTracker{} }

func (m *MemoryTracker) Track(_ context.Context, event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MemoryTracker) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MemoryTracker) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Named returns the recorded events called name.
func (m *MemoryTracker) Named(name string) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
