package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coffee-service/internal/api/http/handlers"
	"github.com/spec-kit/coffee-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Account *handlers.AccountHandler
	Coffee  *handlers.CoffeeHandler
	Gate    *auth.Gate
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)
	health.Get("/metrics", cfg.Health.Metrics)
	health.Get("/prometheus", cfg.Health.Prometheus())

	api := app.Group("/api", cfg.Gate.Handle)
	api.Post("/authenticate", cfg.Auth.Authenticate)

	protected := api.Group("", auth.RequireAuthenticated())
	protected.Get("/account", cfg.Account.Get)
	protected.Get("/coffee-specialties", cfg.Coffee.List)
}
