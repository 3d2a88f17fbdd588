package socket

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

// Message is what a websocket client receives.
type Message struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Relay forwards a message to the other instances.
type Relay interface {
	Publish(ctx context.Context, msg Message) error
}

// UserChannel is the private channel every connection of a user joins.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// OwnsChannel reports whether userID may subscribe to channel: its own user
// channel or any sub-channel of it.
func OwnsChannel(userID uuid.UUID, channel string) bool {
	own := UserChannel(userID)
	return channel == own || strings.HasPrefix(channel, own+":")
}

type Hub struct {
	log      *logger.Logger
	mu       sync.RWMutex
	channels map[string]map[uuid.UUID]*Client
	relay    Relay
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "SocketHub"),
		channels: make(map[string]map[uuid.UUID]*Client),
	}
}

// SetRelay enables cross-instance delivery.
func (h *Hub) SetRelay(relay Relay) {
	h.mu.Lock()
	h.relay = relay
	h.mu.Unlock()
}

func (h *Hub) Subscribe(client *Client, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[uuid.UUID]*Client)
		}
		h.channels[ch][client.ID] = client
	}
	h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, clients := range h.channels {
		if _, ok := clients[client.ID]; ok {
			delete(clients, client.ID)
			if len(clients) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.channels[channel]; ok {
		delete(clients, client.ID)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
}

// localBroadcast delivers to clients on this instance. Slow clients lose
// the message rather than block the hub.
func (h *Hub) localBroadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.channels[msg.Channel] {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
		}
	}
}

// Broadcast delivers locally and relays to the other instances.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.localBroadcast(msg)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		return
	}
	if err := relay.Publish(ctx, msg); err != nil {
		h.log.Warn("Failed to relay message", "channel", msg.Channel, "error", err)
	}
}

// PublishToUser sends event to every connection of userID.
func (h *Hub) PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	h.Broadcast(ctx, Message{Channel: UserChannel(userID), Event: event, Payload: payload})
}
