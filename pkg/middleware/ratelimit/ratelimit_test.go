package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LimitsPerIP(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.GET("/chat", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, Middleware(0.001, 2))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestIPRateLimiter_CleanupStaleIPs(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.GetLimiter("10.0.0.1")
	now = now.Add(20 * time.Minute)
	l.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, l.CleanupStaleIPs(30*time.Minute))
	assert.Equal(t, 1, l.Len())

	now = now.Add(time.Hour)
	assert.Equal(t, 1, l.CleanupStaleIPs(30*time.Minute))
	assert.Zero(t, l.Len())
}
