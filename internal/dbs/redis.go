package dbs

import (
	"context"
	"fmt"
	"time"

	"codepad/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis connects to addr and pings it. An empty addr means Redis is not
// configured and a nil client is returned.
func InitRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Log.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))
	return client, nil
}

func CloseRedis(client *redis.Client) {
	if client != nil {
		_ = client.Close()
	}
}
