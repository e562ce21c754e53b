package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/http/handlers"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/observability"
	"github.com/spec-kit/catalog-service/internal/stats"
)

// RouteConfig bundles dependencies for route registration. Users and
// Products may be nil when no database is configured; their routes are
// then not registered. Catalog routes also require AuthMiddleware.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	Stats          *handlers.StatsHandler
	Interceptor    *stats.Interceptor
	AuthMiddleware *auth.AuthMiddleware
	Throttle       *auth.Throttle
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Every registered route under /api passes
// through the stats interceptor; unmatched paths, health checks and metrics
// are not recorded.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")
	counted := func(chain ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.Interceptor.Handle}, chain...)
	}

	api.Get("/stats", counted(cfg.Stats.List)...)
	api.Get("/stats/search", counted(cfg.Stats.Search)...)
	api.Get("/stats/*", counted(cfg.Stats.SearchPath)...)

	if cfg.Users != nil && cfg.AuthMiddleware != nil {
		var credentials []fiber.Handler
		if cfg.Throttle != nil {
			credentials = append(credentials, cfg.Throttle.Handle)
		}
		api.Post("/register", counted(append(credentials, cfg.Users.Register)...)...)
		api.Post("/login", counted(append(credentials, cfg.Users.Login)...)...)
	}

	if cfg.AuthMiddleware == nil {
		return
	}
	guarded := func(h fiber.Handler) []fiber.Handler {
		return counted(cfg.AuthMiddleware.Handle, auth.RequireActiveUser(), h)
	}

	if cfg.Users != nil {
		api.Post("/logout", guarded(cfg.Users.Logout)...)
		api.Get("/user", guarded(cfg.Users.Me)...)
	}

	if cfg.Products != nil {
		api.Get("/products", guarded(cfg.Products.List)...)
		api.Get("/products/:id<int>", guarded(cfg.Products.Show)...)
		api.Get("/search/products", guarded(cfg.Products.Search)...)
		api.Get("/categories", guarded(cfg.Products.Categories)...)
		api.Get("/categories/:id<int>/products", guarded(cfg.Products.CategoryProducts)...)
		api.Post("/products", guarded(cfg.Products.Create)...)
		api.Put("/products/:id<int>", guarded(cfg.Products.Update)...)
		api.Delete("/products/:id<int>", guarded(cfg.Products.Delete)...)
	}
}
