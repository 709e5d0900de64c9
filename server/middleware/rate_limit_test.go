package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRateLimiter_BurstPerKey(t *testing.T) {
	rl := NewRateLimiterWith(1, 3, time.Hour)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "keys have separate buckets")
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_SweepDropsIdleKeys(t *testing.T) {
	rl := NewRateLimiterWith(DefaultRate, DefaultBurst, time.Hour)
	defer rl.Stop()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("old")
	now = now.Add(limiterIdleTTL + time.Second)
	rl.Allow("fresh")

	rl.sweep()
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiterWith(1, 1, time.Hour)
	defer rl.Stop()

	e := echo.New()
	e.Use(RateLimit(rl))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.7:5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
