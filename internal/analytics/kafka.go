package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTracker buffers events in a channel and ships them from a single
// writer goroutine. When the buffer is full the event is dropped.
type KafkaTracker struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	closing sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewKafkaTracker starts a tracker writing to topic on brokers.
func NewKafkaTracker(brokers []string, topic string, buf int) *KafkaTracker {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaTracker(w, buf)
}

func newKafkaTracker(w messageWriter, buf int) *KafkaTracker {
	if buf <= 0 {
		buf = 1
	}
	t := &KafkaTracker{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *KafkaTracker) run() {
	defer close(t.done)
	for m := range t.inbox {
		if err := t.w.WriteMessages(context.Background(), m); err != nil {
			logger.Error("Failed to write analytics event", err, map[string]interface{}{
				"key": string(m.Key),
			})
		}
	}
}

func (t *KafkaTracker) Track(_ context.Context, event Event) {
	value, err := event.Marshal()
	if err != nil {
		logger.Error("Failed to encode analytics event", err, map[string]interface{}{
			"event": event.Name,
		})
		return
	}

	key := event.Key
	if key == "" {
		key = event.Name
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Name)},
		},
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.inbox <- msg:
	default:
		logger.Warn("Analytics buffer full, dropping event", map[string]interface{}{
			"event": event.Name,
		})
	}
}

// Close flushes buffered events and closes the writer.
func (t *KafkaTracker) Close() error {
	var err error
	t.closing.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.inbox)
		t.mu.Unlock()

		<-t.done
		err = t.w.Close()
	})
	return err
}
