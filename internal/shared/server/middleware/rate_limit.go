package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"bloodreport-backend/internal/shared/metrics"
)

// Limiter decides whether a caller key may proceed. Implementations must be
// safe for concurrent use; a multi-instance deployment can swap in a shared
// backend behind this interface.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// WindowLimiter is a process-local fixed-window counter keyed by caller
// identity. Increment-and-check happens under one lock so concurrent requests
// from the same caller are never undercounted.
type WindowLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	entries map[string]*windowEntry
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

// NewWindowLimiter constructs a WindowLimiter allowing max requests per window.
func NewWindowLimiter(max int, window time.Duration, now func() time.Time) *WindowLimiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		max:     max,
		window:  window,
		now:     now,
		entries: make(map[string]*windowEntry),
	}
}

// Allow increments the caller's counter and reports whether the request fits
// in the current window. When rejected it returns the time until the window
// rolls over.
func (l *WindowLimiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.max <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.windowEnd) {
		l.entries[key] = &windowEntry{count: 1, windowEnd: now.Add(l.window)}
		return true, 0
	}
	if entry.count >= l.max {
		return false, entry.windowEnd.Sub(now)
	}
	entry.count++
	return true, 0
}

// RateLimit rejects requests over the caller's window budget with 429.
// The caller key is the X-User-Id header when present, otherwise the client
// IP. The form body is deliberately not consulted here; parsing it would
// consume the request body before upload handlers set their size cap.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callerKey(c)
		allowed, retryAfter := limiter.Allow(key)
		if allowed {
			c.Next()
			return
		}
		metrics.IncRateLimited()
		seconds := int(retryAfter / time.Second)
		if seconds <= 0 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "rate_limited",
				"message": "Too many requests. Try again shortly.",
			},
			"retry_after_seconds": seconds,
		})
	}
}

func callerKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-User-Id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.ClientIP())
}
