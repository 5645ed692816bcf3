package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/climcare/repair-service/internal/api/http/handlers"
	"github.com/climcare/repair-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Users            *handlers.UsersHandler
	Requests         *handlers.RequestsHandler
	Stats            *handlers.StatsHandler
	Notifications    *handlers.NotificationsHandler
	AuthMiddleware   *auth.AuthMiddleware
	RedisClient      *redis.Client
	LoginAttemptsMin int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", auth.LoginRateLimiter(cfg.RedisClient, cfg.LoginAttemptsMin), cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Users.Me)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	requests.Post("", cfg.Requests.CreateRequest)
	requests.Get("", cfg.Requests.ListRequests)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Patch("/:id", cfg.Requests.EditRequest)
	requests.Post("/:id/comments", cfg.Requests.AddComment)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireManagement())
	users.Post("", cfg.Users.CreateUser)
	users.Get("", cfg.Users.ListUsers)
	users.Patch("/:id", cfg.Users.UpdateUser)

	stats := app.Group("/stats", cfg.AuthMiddleware.Handle, auth.RequireManagement())
	stats.Get("", cfg.Stats.Statistics)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	notifications.Get("", cfg.Notifications.List)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
