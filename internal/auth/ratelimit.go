package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// LoginRateLimiter limits login attempts per client IP using a Redis
// counter with a one-minute window. When Redis is unreachable the
// limiter lets the request through rather than locking everyone out.
func LoginRateLimiter(client *redis.Client, attemptsPerMinute int) fiber.Handler {
	if attemptsPerMinute <= 0 {
		attemptsPerMinute = 20
	}
	return func(c *fiber.Ctx) error {
		if client == nil {
			return c.Next()
		}
		key := fmt.Sprintf("login_attempts:%s", c.IP())

		count, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			client.Expire(c.Context(), key, time.Minute)
		}
		if count > int64(attemptsPerMinute) {
			return apperrors.NewTooManyRequests("too many login attempts, retry in a minute")
		}
		return c.Next()
	}
}
