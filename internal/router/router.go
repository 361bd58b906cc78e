package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"  // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9" // shared client for the response cache and the rate limiter

	"github.com/iliyamo/smart-seats/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/smart-seats/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/smart-seats/internal/middleware" // JWT, rate limit and response cache middleware
	"github.com/iliyamo/smart-seats/internal/snapshot"   // snapshot cache drives readiness and cache keys
)

// Deps bundles everything the routes need.  Redis may be nil, in which
// case caching and rate limiting are skipped.
type Deps struct {
	Seats     *handler.SeatHandler
	Chat      *handler.ChatHandler
	Snapshots *snapshot.Cache
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// RegisterRoutes registers routes that do not require authentication:
// liveness and readiness checks.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Liveness for load balancers; always "ok" while the process serves.
	e.GET("/healthz", handler.Health)
	// Readiness flips once the first snapshot is published.
	e.GET("/readyz", handler.Ready(d.Snapshots))
}

// RegisterSeats registers the public seat endpoints under /v1/seats.
// Suggestions are cached in Redis per snapshot version.
func RegisterSeats(e *echo.Echo, d Deps) {
	g := e.Group("/v1/seats")
	g.GET("/snapshot", d.Seats.GetSnapshot)

	version := func() uint64 { return d.Snapshots.Get().Version }
	g.GET("/suggestions", d.Seats.Suggest, middleware.NewRedisCache(d.Cache, d.Redis, version))

	// Sensor reports over HTTP, for deployments without an MQTT broker.
	// With a JWT secret configured only sensor and staff tokens may write.
	g.POST("/occupancy", d.Seats.ReportOccupancy,
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(d.JWTSecret, middleware.RoleSensor, middleware.RoleStaff),
	)
	g.POST("/occupancy/batch", d.Seats.ReportOccupancyBatch,
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(d.JWTSecret, middleware.RoleSensor, middleware.RoleStaff),
	)
	g.GET("/occupancy/current", d.Seats.CurrentOccupancy)
	g.GET("/occupancy/history", d.Seats.OccupancyHistory)

	// Forces a drift tick; staff only.
	g.POST("/simulate", d.Seats.Simulate,
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(d.JWTSecret, middleware.RoleStaff),
	)
}

// RegisterAssistant registers the concierge chat.  JWTAuth is a no-op
// when no secret is configured; the token bucket keys on the JWT subject
// when present and on the client IP otherwise.
func RegisterAssistant(e *echo.Echo, d Deps) {
	g := e.Group(
		"/v1/assistant",
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)
	g.POST("/chat", d.Chat.Chat)
}
