// Package router registers the HTTP routes of the API.
package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bookstore-api/internal/config"
	"github.com/iliyamo/bookstore-api/internal/handler"
	"github.com/iliyamo/bookstore-api/internal/middleware"
	"github.com/iliyamo/bookstore-api/internal/model"
)

// Handlers groups the endpoint implementations mounted by Register.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Orders   *handler.OrderHandler
	Activity *handler.ActivityHandler
	Stats    *handler.StatsHandler
}

// Deps carries what the route middleware needs. Redis may be nil, in which
// case rate limiting and response caching are switched off.
type Deps struct {
	Verifier  middleware.TokenVerifier
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Gatherer  prometheus.Gatherer
	Log       *slog.Logger
}

// Register mounts every route on e. It installs the request validator when
// e has none.
func Register(e *echo.Echo, h Handlers, d Deps) {
	if e.Validator == nil {
		e.Validator = handler.NewValidator()
	}
	RegisterRoutes(e, h.Health, d.Gatherer)

	v1 := e.Group("/v1")
	// authn attaches the caller's identity; every group below except the
	// credential endpoints sits behind it.
	authn := middleware.Authenticate(d.Verifier)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleCurator)
	admin := middleware.RequireRoles(model.RoleAdmin)

	registerAuth(v1, h.Auth, authn, middleware.RateLimit(d.RateLimit, d.Redis, d.Log))
	registerUsers(v1, h.Users, authn, staff, admin)
	registerOrders(v1, h.Orders, authn, staff)

	// Audit trail is read-only and staff-only.
	v1.GET("/activity-logs", h.Activity.List, authn, staff)

	// Dashboards are cached in redis when it is available; the overview
	// exposes revenue and is restricted to admins.
	stats := v1.Group("/stats", authn, staff, middleware.ResponseCache(d.Cache, d.Redis))
	stats.GET("/overview", h.Stats.Overview, admin)
	stats.GET("/top-books", h.Stats.TopBooks)
	stats.GET("/daily-sales", h.Stats.DailySales)
}

// RegisterRoutes registers the routes that do not require authentication:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler, g prometheus.Gatherer) {
	e.GET("/health", health.Health)
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

// registerAuth mounts /v1/auth. Credential endpoints are public and rate
// limited; logout-all needs a valid access token.
func registerAuth(v1 *echo.Group, a *handler.AuthHandler, authn, limit echo.MiddlewareFunc) {
	g := v1.Group("/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	// Rotates the refresh token; the old one is revoked in the same transaction.
	g.POST("/refresh", a.Refresh, limit)
	// Logout takes the refresh token in the body and never requires an access token.
	g.POST("/logout", a.Logout, limit)
	g.POST("/logout-all", a.LogoutAll, authn)
}

// registerUsers mounts /v1/users. /me is self-service; listing and lookups
// are for staff; role and status changes are admin-only.
func registerUsers(v1 *echo.Group, u *handler.UserHandler, authn, staff, admin echo.MiddlewareFunc) {
	g := v1.Group("/users", authn)
	g.GET("/me", u.Me)
	g.PATCH("/me", u.UpdateMe)

	g.GET("", u.List, staff)
	g.GET("/:id", u.Get, staff)
	g.GET("/:id/orders", u.ListOrders, staff)

	g.PATCH("/:id/role", u.ChangeRole, admin)
	g.PATCH("/:id/status", u.ChangeStatus, admin)
}

// registerOrders mounts /v1/orders. Any signed-in user may place, read and
// cancel their own orders; the full list and status overrides are for staff.
func registerOrders(v1 *echo.Group, o *handler.OrderHandler, authn, staff echo.MiddlewareFunc) {
	g := v1.Group("/orders", authn)
	g.POST("", o.Create)
	g.GET("/mine", o.Mine)
	g.GET("/:id", o.Get)
	g.GET("/:id/items", o.Items)
	g.DELETE("/:id", o.Cancel)

	g.GET("", o.List, staff)
	g.PATCH("/:id/status", o.UpdateStatus, staff)
}
