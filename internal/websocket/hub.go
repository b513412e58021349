package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

// Hub fans order feed events out to every connected admin client.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu       sync.RWMutex
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Admin feed client registered", map[string]interface{}{
				"session_id": client.sessionID,
				"clients":    total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Admin feed client unregistered", map[string]interface{}{
				"session_id": client.sessionID,
				"clients":    total,
			})

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow reader: drop it rather than stall the feed.
					delete(h.clients, client)
					close(client.send)
					logger.Warn("Admin feed client too slow, disconnecting", map[string]interface{}{
						"session_id": client.sessionID,
					})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues event for every connected client. Events are dropped when
// the broadcast queue is full.
func (h *Hub) Publish(event model.OrderFeedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal feed event", err, nil)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Feed broadcast queue full, event dropped", map[string]interface{}{
			"type": event.Type,
		})
	}
}

// Register adds client to the hub. Once the hub has stopped the client's
// send queue is closed instead, which ends its write pump.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.send)
		return
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister never blocks after the hub has stopped; Run has already closed
// every registered client by then.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
