package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	serviceerrors "github.com/hrygo/homepref/server/internal/errors"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	// Buckets are per key.
	assert.True(t, rl.Allow("b"))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("a"))
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	var rejected []error
	e := echo.New()
	e.Use(NewRateLimiter(0.001, 1).Middleware(func(c echo.Context, err error) error {
		rejected = append(rejected, err)
		return c.NoContent(http.StatusTooManyRequests)
	}))
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))

	if assert.Len(t, rejected, 1) {
		assert.True(t, serviceerrors.IsCode(rejected[0], serviceerrors.ErrCodeRateLimitExceeded))
	}
}
