package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogdanmosica/montessori-app-sub002/config"
)

func rateLimitRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit("login", perMinute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	previous := config.RDB
	config.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { config.RDB = previous })

	r := rateLimitRouter(3)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// The counter must never exist without an expiry, or the client would
	// stay locked out past the minute window.
	key := "ratelimit:login:192.0.2.1"
	require.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	previous := config.RDB
	config.RDB = nil
	t.Cleanup(func() { config.RDB = previous })

	r := rateLimitRouter(1)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("POST", "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
