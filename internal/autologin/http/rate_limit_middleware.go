package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleThreshold   = time.Hour
)

// ipRateLimiterStore holds per-IP rate limiters with automatic cleanup.
type ipRateLimiterStore struct {
	limiters sync.Map // map[string]*ipRateLimiterEntry
	rps      float64
	burst    int
}

type ipRateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// RedeemRateLimitMiddleware slows down token guessing from a single address.
// Each client IP has a token bucket of rps per second with the given burst, and
// only failed redemptions (4xx answers such as invalid_link) draw from it. A
// successful redirect or a 503 from an unavailable store costs nothing, so a
// user retrying during an outage is not locked out.
//
// An IP with an empty bucket gets 429 with Retry-After before the handler runs.
// Stale limiters are evicted by a goroutine that stops when ctx is cancelled.
func RedeemRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipRateLimiterStore{
		rps:   rps,
		burst: burst,
	}

	go store.cleanupStale(ctx, limiterCleanupInterval)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.getLimiter(clientIP)

		if tokens := limiter.Tokens(); tokens < 1 {
			retryAfter := retryAfterSeconds(tokens, rps)

			logger.Debug("redeem rate limit exceeded",
				slog.String("client_ip", clientIP),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many failed sign in attempts from this IP. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()

		if chargesFailure(c.Writer.Status()) {
			limiter.Allow()
		}
	}
}

// chargesFailure reports whether a redeem answer counts against the caller.
func chargesFailure(status int) bool {
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

// retryAfterSeconds is the wait until the bucket holds one token again, at
// least one second.
func retryAfterSeconds(tokens, rps float64) int {
	if rps <= 0 {
		return int(limiterIdleThreshold.Seconds())
	}
	wait := int(math.Ceil((1 - tokens) / rps))
	if wait < 1 {
		return 1
	}
	return wait
}

func (s *ipRateLimiterStore) getLimiter(ip string) *rate.Limiter {
	now := time.Now()
	if val, ok := s.limiters.Load(ip); ok {
		entry := val.(*ipRateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &ipRateLimiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: now,
	}
	actual, _ := s.limiters.LoadOrStore(ip, entry)
	return actual.(*ipRateLimiterEntry).limiter
}

// cleanupStale removes limiters idle for longer than limiterIdleThreshold.
func (s *ipRateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle(time.Now().Add(-limiterIdleThreshold))
		}
	}
}

func (s *ipRateLimiterStore) evictIdle(threshold time.Time) int {
	evicted := 0
	s.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*ipRateLimiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
			evicted++
		}
		return true
	})
	return evicted
}
