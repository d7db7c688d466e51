package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProduct retrieves a cached catalog product payload
func (c *Client) GetProduct(ctx context.Context, code string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, productKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// SetProduct caches a catalog product payload with a TTL
func (c *Client) SetProduct(ctx context.Context, code string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, productKey(code), payload, ttl).Err()
}

func productKey(code string) string {
	return fmt.Sprintf("catalog:product:%s", code)
}
