package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
	EventSearchPerformed    = "search_performed"
	EventAdminLogin         = "admin_login"
	EventReviewSubmitted    = "review_submitted"
	EventReviewVoted        = "review_voted"
)

const eventVersion = 1

// Event is the envelope written to the analytics topic.
type Event struct {
	EventID    string                 `json:"event_id"`
	Name       string                 `json:"name"`
	Version    int                    `json:"version"`
	OccurredAt time.Time              `json:"occurred_at"`
	Source     string                 `json:"source"` // "server" or "client"
	Key        string                 `json:"key,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

func NewEvent(name, source, key string, props map[string]interface{}) Event {
	return Event{
		EventID:    uuid.NewString(),
		Name:       name,
		Version:    eventVersion,
		OccurredAt: time.Now().UTC(),
		Source:     source,
		Key:        key,
		Properties: props,
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
