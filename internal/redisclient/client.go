package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// this ping function checks redis connectivity

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

// this closes the client

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// Hit implements a fixed-window counter shared by every API replica.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.redisdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", key, err)
	}

	if count == 1 {
		if err := c.redisdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis pexpire %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := c.redisdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis pttl %s: %w", key, err)
	}

	// a key without expiry would block the caller forever
	if ttl < 0 {
		if err := c.redisdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis pexpire %s: %w", key, err)
		}
		ttl = window
	}

	return count, ttl, nil
}
