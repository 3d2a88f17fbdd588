package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

type InboundMessage struct {
	Action  string `json:"action,omitempty"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel,omitempty"`
}

const (
	OutboundChanBuffer = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Conn     *websocket.Conn
	Hub      *Hub
	Log      *logger.Logger
	Outbound chan Message

	cancelFn  context.CancelFunc
	closeOnce sync.Once
}

// NewClient builds a client for an upgraded connection. cancel stops both
// pumps; it comes from the handler so the connection outlives the request.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID, cancel context.CancelFunc, log *logger.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:       id,
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Log:      log.With("client", id, "userID", userID),
		Outbound: make(chan Message, OutboundChanBuffer),
		cancelFn: cancel,
	}
}

func (c *Client) ReadLoop(ctx context.Context) {
	defer c.close()

	c.Conn.SetReadLimit(64 << 10)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.Log.Debug("websocket read error, closing client", "error", err)
			return
		}
		var inbound InboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			c.Log.Debug("Failed to unmarshal inbound message", "error", err)
			continue
		}
		c.handleInbound(inbound)
	}
}

func (c *Client) handleInbound(inbound InboundMessage) {
	if inbound.Channel == "" {
		return
	}
	switch inbound.Action {
	case "subscribe":
		if !OwnsChannel(c.UserID, inbound.Channel) {
			c.Log.Warn("Rejected subscription to foreign channel", "channel", inbound.Channel)
			return
		}
		c.Hub.Subscribe(c, []string{inbound.Channel})
	case "unsubscribe":
		if inbound.Channel == UserChannel(c.UserID) {
			return
		}
		c.Hub.UnsubscribeFromChannel(c, inbound.Channel)
	default:
		c.Log.Debug("Inbound message unhandled", "action", inbound.Action)
	}
}

func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case msg := <-c.Outbound:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Log.Warn("Failed writing message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Log.Debug("Ping failed, closing client", "error", err)
				return
			}
		}
	}
}

// close runs once: the client leaves the hub before its connection closes,
// so no broadcast can target a dead client.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.Hub.Unsubscribe(c)
		if c.cancelFn != nil {
			c.cancelFn()
		}
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		c.Log.Debug("Client closed")
	})
}
