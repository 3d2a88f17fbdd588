package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/furnihome/furnihome-backend/internal/logger"
)

// ConnectRedis opens a client and pings it. The client backs both the
// catalog cache and the socket hub's cross-instance relay.
func ConnectRedis(ctx context.Context, log *logger.Logger, addr, password string) (*redis.Client, error) {
	serviceLog := log.With("service", "Redis")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		serviceLog.Warn("Redis ping failed", "addr", addr, "error", err)
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	serviceLog.Info("Connected to Redis :)", "addr", addr)
	return client, nil
}
