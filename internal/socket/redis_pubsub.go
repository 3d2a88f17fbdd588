package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

// envelope tags a relayed message with the instance that sent it.
type envelope struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
}

// RedisPubSub relays hub messages between instances over one Redis channel.
type RedisPubSub struct {
	log        *logger.Logger
	client     *redis.Client
	channel    string
	nodeID     string
	cancelFunc context.CancelFunc
	mu         sync.Mutex
}

func NewRedisPubSub(log *logger.Logger, client *redis.Client, channel string) *RedisPubSub {
	nodeID := uuid.NewString()
	return &RedisPubSub{
		log:     log.With("component", "RedisPubSub", "node", nodeID),
		client:  client,
		channel: channel,
		nodeID:  nodeID,
	}
}

// StartSubscriber feeds messages from other instances into hub until Stop.
func (rp *RedisPubSub) StartSubscriber(hub *Hub) error {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := rp.client.Subscribe(ctx, rp.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to redis channel: %w", err)
	}
	rp.mu.Lock()
	rp.cancelFunc = cancel
	rp.mu.Unlock()
	rp.log.Info("RedisPubSub subscribed successfully", "channel", rp.channel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				rp.log.Debug("Redis pubsub context done, stopping subscription goroutine")
				return
			case msg, ok := <-ch:
				if !ok {
					rp.log.Debug("PubSub channel closed, stopping subscription goroutine")
					return
				}
				rp.deliver(hub, msg.Payload)
			}
		}
	}()
	return nil
}

func (rp *RedisPubSub) deliver(hub *Hub, payload string) {
	env, err := decodeEnvelope(payload)
	if err != nil {
		rp.log.Warn("Failed to decode pubsub message", "error", err)
		return
	}
	if env.Origin == rp.nodeID {
		return
	}
	hub.localBroadcast(env.Message)
}

func (rp *RedisPubSub) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(envelope{Origin: rp.nodeID, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to encode message for redis: %w", err)
	}
	return rp.client.Publish(ctx, rp.channel, raw).Err()
}

func (rp *RedisPubSub) Stop() {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.cancelFunc != nil {
		rp.cancelFunc()
		rp.cancelFunc = nil
	}
}

func decodeEnvelope(payload string) (envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return env, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return env, nil
}
