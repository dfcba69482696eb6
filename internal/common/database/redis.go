package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subsidy-wizard/internal/common/config"

	"github.com/redis/go-redis/v9"
)

var ErrNoRedisAddress = errors.New("redis address is empty")

// RedisClient holds the connection used for wizard drafts.
type RedisClient struct {
	client *redis.Client
}

func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, ErrNoRedisAddress
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &RedisClient{client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     poolSize,
		MinIdleConns: cfg.MinIdleConns,
	})}, nil
}

// Ping satisfies the API readiness check.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *RedisClient) GetClient() *redis.Client {
	return c.client
}
