package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHit_FixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	c := New(Config{Addr: addr})
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	key := "test:ratelimit:" + uuid.NewString()

	for want := int64(1); want <= 3; want++ {
		got, ttl, err := c.Hit(ctx, key, time.Minute)
		if err != nil {
			t.Fatalf("hit: %v", err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}
