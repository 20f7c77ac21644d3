package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowCounter counts hits on a key that expires after window. RedisCache
// implements it so the limit is shared across instances.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitMiddleware provides basic rate limiting
type RateLimitMiddleware struct {
	counter   WindowCounter
	requests  map[string][]int64 // client -> unix timestamps
	lastSweep int64
	mu        sync.Mutex
	now       func() time.Time
}

// NewRateLimitMiddleware creates a rate limiter. A nil counter keeps the
// counts in process memory.
func NewRateLimitMiddleware(counter WindowCounter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		counter:  counter,
		requests: make(map[string][]int64),
		now:      time.Now,
	}
}

// RateLimit allows maxRequests per client within windowSeconds. Clients are
// keyed by account when authenticated, else by IP. A non-positive maxRequests
// disables the limit. If the shared counter fails the in-memory window is used.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) gin.HandlerFunc {
	window := time.Duration(windowSeconds) * time.Second
	return func(c *gin.Context) {
		if maxRequests <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if account := AccountID(c); account != "" {
			key = "account:" + account
		}

		count, ok := m.sharedCount(c.Request.Context(), key, window)
		if !ok {
			count = m.localCount(key, maxRequests, windowSeconds)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if count > int64(maxRequests) {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(windowSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Rate limit exceeded"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(maxRequests)-count, 10))
		c.Next()
	}
}

// sharedCount counts the hit in a fixed window keyed by the window's start.
func (m *RateLimitMiddleware) sharedCount(ctx context.Context, key string, window time.Duration) (int64, bool) {
	if m.counter == nil || window <= 0 {
		return 0, false
	}
	bucket := m.now().Unix() / int64(window.Seconds())
	count, err := m.counter.IncrWindow(ctx, fmt.Sprintf("trips:ratelimit:%s:%d", key, bucket), window)
	if err != nil {
		return 0, false
	}
	return count, true
}

// localCount records the hit in a sliding window and returns the number of
// hits inside it, including this one. Rejected hits are not recorded.
func (m *RateLimitMiddleware) localCount(key string, maxRequests, windowSeconds int) int64 {
	now := m.now().Unix()
	windowStart := now - int64(windowSeconds)

	m.mu.Lock()
	defer m.mu.Unlock()

	if now-m.lastSweep >= int64(windowSeconds) {
		m.sweep(windowStart)
		m.lastSweep = now
	}

	valid := recent(m.requests[key], windowStart)
	if len(valid) >= maxRequests {
		m.requests[key] = valid
		return int64(len(valid)) + 1
	}
	m.requests[key] = append(valid, now)
	return int64(len(valid)) + 1
}

// sweep drops clients with no hits left in the window.
func (m *RateLimitMiddleware) sweep(windowStart int64) {
	for key, hits := range m.requests {
		if valid := recent(hits, windowStart); len(valid) > 0 {
			m.requests[key] = valid
		} else {
			delete(m.requests, key)
		}
	}
}

func recent(hits []int64, windowStart int64) []int64 {
	valid := hits[:0]
	for _, ts := range hits {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	return valid
}
