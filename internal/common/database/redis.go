// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"learnstyle-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection used for the prediction cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a client from config. Pool size and dial timeout come from
// the redis section; read and write timeouts stay short so a slow cache
// degrades to a miss instead of stalling a job.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	minIdle := poolSize / 2
	if minIdle < 1 {
		minIdle = 1
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  config.GetDuration(cfg.DialTimeout),
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
	})

	return &RedisClient{Client: rdb}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{Client: rdb}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// CountKeys returns how many keys start with prefix, walking the keyspace
// with SCAN so large caches are not blocked.
func (c *RedisClient) CountKeys(ctx context.Context, prefix string) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed: %w", err)
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

// DeletePrefix removes every key starting with prefix and returns the number
// removed.
func (c *RedisClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.Client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete failed: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetClient returns the underlying *redis.Client
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
