// Package redis wraps the key-value cache used in front of the published
// entry idempotence check.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pezware/mirubato-sub004/internal/config"
)

// Client wraps the redis connection.
type Client struct {
	rdb *redis.Client
}

// NewClient creates and pings a redis client from RedisConfig.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
