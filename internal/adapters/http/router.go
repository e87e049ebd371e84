package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

// RequestTimeout bounds every API handler.
const RequestTimeout = 30 * time.Second

// LegacyHistorySunset is when /v1/route/history stops being served.
var LegacyHistorySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(SecurityHeadersMiddleware())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New())

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness are neither rate limited nor authenticated
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	SetupDocs(app, deps.SpecPath)

	app.Use(RateLimitMiddleware(deps.Limiter))
	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Path:        "/v1/route/history",
		SunsetDate:  LegacyHistorySunset,
		Alternative: "/v1/history",
	}}))

	auth := AuthMiddleware(deps.Auth)
	wrap := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, RequestTimeout)
	}

	v1 := app.Group("/v1", auth)
	v1.Post("/routes/optimize", wrap(OptimizeRouteHandler(deps)))
	v1.Post("/routes/simulate", wrap(SimulateRouteHandler(deps)))
	v1.Post("/insights", wrap(InsightsHandler(deps)))
	v1.Post("/weather", wrap(WeatherHandler(deps)))
	v1.Get("/history", wrap(RouteHistoryHandler(deps)))
	v1.Get("/route/history", wrap(RouteHistoryHandler(deps)))
	v1.Get("/routes/:id", wrap(GetRouteHandler(deps)))
	v1.Delete("/routes/:id", wrap(DeleteRouteHandler(deps)))

	app.Post("/graphql", auth, wrap(GraphQLHandler(deps)))

	app.Get("/ws", auth, WebSocketUpgrade(), websocket.New(WebSocketHandler(deps.Feed)))
}

// NewApp builds a Fiber app with the shared error handler and all routes.
func NewApp(deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "zimroute",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
		ReadTimeout:           RequestTimeout + 5*time.Second,
		WriteTimeout:          RequestTimeout + 5*time.Second,
		IdleTimeout:           2 * time.Minute,
	})
	SetupRoutes(app, deps)
	return app
}
