package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
)

const (
	readTimeout = 15 * time.Second
	// Route planning calls the geocoder and then the router in sequence.
	planTimeout = 45 * time.Second
	// A refresh pulls every upstream source.
	refreshTimeout = 2 * time.Minute
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// The dashboard is served from a different origin.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
	}))

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
	app.Use(DeprecationMiddleware(legacyRoutes))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/stations", timeout.NewWithContext(StationsHandler(deps), readTimeout))
	v1.Get("/shelters", timeout.NewWithContext(SheltersHandler(deps), readTimeout))
	v1.Get("/shelters/nearest", timeout.NewWithContext(NearestShelterHandler(deps), readTimeout))
	v1.Get("/shelters/geojson", timeout.NewWithContext(SheltersGeoJSONHandler(deps), readTimeout))
	v1.Get("/hydrants", timeout.NewWithContext(HydrantsHandler(deps), readTimeout))
	v1.Get("/hazards", timeout.NewWithContext(HazardsHandler(deps), readTimeout))
	v1.Get("/hazards/geojson", timeout.NewWithContext(HazardsGeoJSONHandler(deps), readTimeout))
	v1.Get("/hazards/avoid-regions", timeout.NewWithContext(AvoidRegionsHandler(deps), readTimeout))
	v1.Get("/alerts", timeout.NewWithContext(AlertsHandler(deps), readTimeout))
	v1.Get("/snapshots", timeout.NewWithContext(SnapshotsMetaHandler(deps), readTimeout))
	v1.Post("/snapshots/refresh", timeout.NewWithContext(RefreshSnapshotsHandler(deps), refreshTimeout))
	v1.Post("/routes/plan", timeout.NewWithContext(PlanRouteHandler(deps), planTimeout))
	v1.Post("/routing/proxy", timeout.NewWithContext(RoutingProxyHandler(deps), planTimeout))
	v1.Get("/deployments/optimal", timeout.NewWithContext(OptimalDeploymentHandler(deps), readTimeout))

	// Aliases for the original dashboard; see legacyRoutes.
	legacy := app.Group("/api")
	legacy.Get("/shelters", timeout.NewWithContext(LegacySheltersHandler(deps), readTimeout))
	legacy.Post("/graphhopper-route", timeout.NewWithContext(RoutingProxyHandler(deps), planTimeout))
	legacy.Get("/optimal-deployment", timeout.NewWithContext(LegacyDeploymentHandler(deps), readTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), planTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "event relay is not configured")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	if deps.NATS != nil {
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
