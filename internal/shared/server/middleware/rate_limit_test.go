package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestWindowLimiterBlocksOverBudget(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(2, time.Minute, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if allowed, _ := limiter.Allow("user-1"); !allowed {
			t.Fatalf("request %d expected to pass", i+1)
		}
	}
	allowed, retryAfter := limiter.Allow("user-1")
	if allowed {
		t.Fatal("expected third request to be rejected")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after: %v", retryAfter)
	}
}

func TestWindowLimiterResetsAfterRollover(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(1, time.Minute, func() time.Time { return now })

	if allowed, _ := limiter.Allow("user-1"); !allowed {
		t.Fatal("first request expected to pass")
	}
	if allowed, _ := limiter.Allow("user-1"); allowed {
		t.Fatal("second request expected to be rejected")
	}

	now = now.Add(61 * time.Second)
	if allowed, _ := limiter.Allow("user-1"); !allowed {
		t.Fatal("request after window rollover expected to pass")
	}
}

func TestWindowLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewWindowLimiter(1, time.Minute, nil)
	if allowed, _ := limiter.Allow("user-1"); !allowed {
		t.Fatal("user-1 expected to pass")
	}
	if allowed, _ := limiter.Allow("user-2"); !allowed {
		t.Fatal("user-2 expected to pass")
	}
}

func TestRateLimitMiddleware429IncludesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(1, time.Minute, func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.POST("/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, newFormRequest(t, "user-1"))
	if first.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, newFormRequest(t, "user-1"))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

func newFormRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.Header.Set("X-User-Id", userID)
	return req
}
