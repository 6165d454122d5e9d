package queue

import (
	"context"
	"fmt"
	"time"

	"codenotes/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis dials the configured Redis and verifies it with a PING.
func ConnectRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:        config.AppConfig.RedisAddr,
		Password:    config.AppConfig.RedisPassword,
		DB:          config.AppConfig.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("could not connect to Redis: %w", err)
	}
	RDB = client
	return nil
}

func CloseRedis() error {
	if RDB != nil {
		return RDB.Close()
	}
	return nil
}
