package ports

import (
	"context"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

// DirectionsProvider fetches normalized route candidates.
// Failures are logged by the implementation and surface as an empty slice.
type DirectionsProvider interface {
	FetchRoutes(ctx context.Context, q domain.RouteQuery) []domain.RouteCandidate
}

// PlaceResolver resolves an opaque place ID to a point.
// Every failure is reported as a not-found domain error.
type PlaceResolver interface {
	Resolve(ctx context.Context, placeID string) (domain.Place, error)
}

// TextGenerator sends a prompt to a text-generation model and returns its raw text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// WeatherProvider fetches current conditions. Errors are *domain.WeatherError.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error)
}

// CounterStore holds fixed-window request counters.
type CounterStore interface {
	// Hit atomically initialises the window for key if absent (expiring after window),
	// rejects when the count has reached limit, and otherwise increments it.
	// It returns whether the hit was admitted, the count after the call and the
	// remaining window time.
	Hit(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, count int64, ttl time.Duration, err error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRouteSaved(ctx context.Context, rec *domain.RouteRecord) error
	PublishTrafficUpdate(ctx context.Context, u *domain.TrafficUpdate) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
