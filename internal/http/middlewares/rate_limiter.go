package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowStore counts hits per key in fixed windows. Hit returns the count
// including this hit and the time left in the current window.
type WindowStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

type RateLimiter struct {
	store  WindowStore
	window time.Duration
	limit  int64
	prefix string
}

func NewRateLimiter(store WindowStore, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
	}
}

// RateLimiterMiddleware enforces the limit for a derived key. Store
// failures let the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, resetIn, err := rl.store.Hit(c.Request.Context(), rl.prefix+key, rl.window)
		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(resetIn.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

const sweepThreshold = 1024

// MemoryWindowStore keeps counters in process; fine for a single replica.
type MemoryWindowStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (s *MemoryWindowStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]
	if !ok || now.After(b.windowEnd) {
		if len(s.clients) >= sweepThreshold {
			s.sweep(now)
		}
		b = &clientBucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// sweep drops expired buckets so the map does not grow with every IP ever
// seen. Caller holds mu.
func (s *MemoryWindowStore) sweep(now time.Time) {
	for k, b := range s.clients {
		if now.After(b.windowEnd) {
			delete(s.clients, k)
		}
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
