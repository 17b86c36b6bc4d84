package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	APIPrefix      string
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Supports       *handlers.SupportsHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   fiber.Handler
}

// RegisterRoutes wires HTTP routes. The catch-all must stay last.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	if cfg.LoginLimiter != nil {
		authGroup.Post("/login", cfg.LoginLimiter, cfg.Auth.Login)
	} else {
		authGroup.Post("/login", cfg.Auth.Login)
	}

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", auth.RequirePermission(auth.ResourceUsers), cfg.Users.List)
	users.Post("/", auth.RequirePermission(auth.ResourceUsers), cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Delete("/:id", auth.RequirePermission(auth.ResourceUsers), cfg.Users.Delete)

	supports := api.Group("/supports", cfg.AuthMiddleware.Handle)
	supports.Get("/", cfg.Supports.List)
	supports.Post("/", cfg.Supports.Create)
	supports.Get("/export", cfg.Supports.Export)
	supports.Get("/:id", cfg.Supports.Get)
	supports.Get("/:id/history", cfg.Supports.History)
	supports.Post("/:id", cfg.Supports.Comment)
	supports.Patch("/:id", auth.RequirePermission(auth.ResourceSupport), cfg.Supports.Close)
	supports.Delete("/:id", auth.RequirePermission(auth.ResourceSupport), cfg.Supports.Delete)

	app.Use(cfg.Health.NotFound)
}
