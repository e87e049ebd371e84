package http

import (
	"context"

	"github.com/samirrijal/zimroute/internal/core/usecases"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Broker reports message broker connectivity.
type Broker interface {
	Connected() bool
}

// TrafficFeed streams raw traffic refresh events. An empty routeID means all routes.
type TrafficFeed interface {
	Subscribe(routeID string, fn func(data []byte)) (unsubscribe func(), err error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes   *usecases.RouteService
	Insights *usecases.InsightService
	Weather  *usecases.WeatherService
	Traffic  *usecases.TrafficRefreshService
	Limiter  *usecases.RateLimiter
	Feed     TrafficFeed

	Auth AuthConfig
	// Anonymize is the privacy default for callers whose token does not override it.
	Anonymize bool
	// Debug exposes internal error details in responses.
	Debug bool
	// SpecPath locates the OpenAPI document served under /docs.
	SpecPath string

	DB    Pinger
	NATS  Broker
	Cache Pinger
}
