package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/bogdanmosica/montessori-app-sub002/config"
)

// rateLimitScript bumps the counter and sets its expiry in one atomic step.
// A separate INCR-then-EXPIRE pair can leave a counter without a TTL if the
// process dies in between, locking the client out permanently.
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit caps requests per client IP per minute using a shared Redis
// counter, so the limit holds across application instances instead of living
// in per-process maps. Used on the login route. With Redis down the limiter
// fails open.
func RateLimit(name string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.RDB == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", name, c.ClientIP())
		count, err := rateLimitScript.Run(config.Ctx, config.RDB, []string{key}, 60).Int64()
		if err != nil {
			slog.Error("Rate limit counter failed", "error", err, "key", key)
			c.Next()
			return
		}

		if count > int64(perMinute) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again in a minute"})
			c.Abort()
			return
		}
		c.Next()
	}
}
