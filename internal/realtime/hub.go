// Package realtime streams booking lifecycle events to connected
// moderator dashboards over WebSocket, with Redis pub/sub fanning events
// out across server instances.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Publisher publishes a feed event to Redis for cross-instance broadcast.
type Publisher interface {
	PublishFeedEvent(instanceID, event string, payload []byte) error
}

// Subscriber subscribes to the feed channel and invokes handler for
// events from other instances.
type Subscriber interface {
	SubscribeFeed(instanceID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected moderator clients and broadcasts
// booking events to them.
type Hub struct {
	clients    map[string]*Client
	mu         sync.RWMutex
	logger     *zap.Logger
	instanceID string
	pub        Publisher
	subCancel  func()
}

// NewHub creates a booking-event hub and starts the Redis subscription
// when a subscriber is provided.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[string]*Client),
		logger:     logger,
		instanceID: uuid.New().String(),
		pub:        pub,
	}
	if sub != nil {
		cancel, err := sub.SubscribeFeed(h.instanceID, func(event string, payload []byte) {
			h.broadcast(event, payload)
		})
		if err != nil {
			logger.Warn("feed subscription failed", zap.Error(err))
		} else {
			h.subCancel = cancel
		}
	}
	return h
}

// Close stops the Redis subscription.
func (h *Hub) Close() {
	if h.subCancel != nil {
		h.subCancel()
	}
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("feed client connected", zap.String("client_id", c.ID), zap.String("email", c.Email))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("feed client disconnected", zap.String("client_id", c.ID))
}

// ClientCount returns the number of connected watchers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishBookingEvent broadcasts a booking event to local clients and to
// other instances via Redis. Implements the lifecycle manager's
// EventPublisher.
func (h *Hub) PublishBookingEvent(event string, b *models.Booking) {
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	h.broadcast(event, data)
	if h.pub != nil {
		if err := h.pub.PublishFeedEvent(h.instanceID, event, data); err != nil {
			h.logger.Warn("feed publish failed", zap.Error(err), zap.String("event", event))
		}
	}
}

func (h *Hub) broadcast(event string, payload []byte) {
	msg := WSMessage{Event: event, Data: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow consumer; drop rather than block the broadcast
		}
	}
}
