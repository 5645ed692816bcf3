package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimiter(nil, 3), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Without a Redis client the limiter must never block logins.
	for i := 0; i < 10; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
