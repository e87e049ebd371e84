package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

const weatherCacheTTL = 300

// WeatherService serves current conditions through a short-lived cache.
type WeatherService struct {
	provider ports.WeatherProvider
	cache    ports.CacheService
}

// NewWeatherService creates a new WeatherService. cache may be nil.
func NewWeatherService(provider ports.WeatherProvider, cache ports.CacheService) *WeatherService {
	return &WeatherService{provider: provider, cache: cache}
}

// Current returns the weather at p. Provider errors are returned unchanged
// (*domain.WeatherError) so callers can pick a status.
func (s *WeatherService) Current(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// ~110 m cells
	cacheKey := fmt.Sprintf("weather:%.3f:%.3f", p.Lat, p.Lng)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var snap domain.WeatherSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				metrics.CacheHits.WithLabelValues("weather").Inc()
				return &snap, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("weather").Inc()
	}

	snap, err := s.provider.FetchCurrent(ctx, p)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, weatherCacheTTL)
		}
	}
	return snap, nil
}
