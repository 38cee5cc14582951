package utils

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPoolSize    = 100
	redisMinIdle     = 10
	redisMaxRetries  = 3
	redisDialTimeout = 5 * time.Second
)

// NewRedisClient connects the shared client backing payment sessions, the
// admin OTP store and rate limiting. Startup aborts when Redis is
// unreachable; every consumer assumes a live connection.
func NewRedisClient(url string) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// Bare host:port values are accepted too.
		opts = &redis.Options{Addr: url}
	}

	opts.PoolSize = redisPoolSize
	opts.MinIdleConns = redisMinIdle
	opts.MaxRetries = redisMaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("redis connection failed", "addr", opts.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("redis connected", "addr", opts.Addr)
	return client
}

// RedisHealthCheck pings Redis with a short deadline; /health reports
// unhealthy on any error.
func RedisHealthCheck(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
