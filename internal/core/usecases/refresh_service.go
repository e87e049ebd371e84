package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

const trafficCacheTTL = 600

// RefreshReport summarises one refresh pass.
type RefreshReport struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// TrafficRefreshService re-estimates the duration of recently saved routes.
type TrafficRefreshService struct {
	routes     ports.RouteRepository
	directions ports.DirectionsProvider
	cache      ports.CacheService
	publisher  ports.EventPublisher
	anonymize  bool
	now        func() time.Time
}

// NewTrafficRefreshService creates a new TrafficRefreshService. cache and publisher may be nil.
func NewTrafficRefreshService(
	routes ports.RouteRepository,
	directions ports.DirectionsProvider,
	cache ports.CacheService,
	publisher ports.EventPublisher,
) *TrafficRefreshService {
	return &TrafficRefreshService{
		routes:     routes,
		directions: directions,
		cache:      cache,
		publisher:  publisher,
		now:        time.Now,
	}
}

// WithDefaultAnonymize jitters the provider query of every refreshed route,
// not only those saved by callers that asked for privacy.
func (s *TrafficRefreshService) WithDefaultAnonymize(on bool) *TrafficRefreshService {
	s.anonymize = on
	return s
}

// Refresh re-fetches up to limit recent routes. A route the provider no
// longer returns is counted as failed; only listing errors abort the pass.
func (s *TrafficRefreshService) Refresh(ctx context.Context, limit int) (RefreshReport, error) {
	var report RefreshReport

	recs, err := s.routes.ListRecent(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("list recent routes: %w", err)
	}

	for i := range recs {
		rec := &recs[i]
		report.Checked++

		candidates := s.directions.FetchRoutes(ctx, domain.RouteQuery{
			Origin:      rec.Origin,
			Destination: rec.Destination,
			Mode:        rec.Mode,
			Anonymize:   s.anonymize || rec.Anonymize,
		})
		if len(candidates) == 0 {
			report.Failed++
			continue
		}

		u := &domain.TrafficUpdate{
			RouteID:         rec.ID,
			UserID:          rec.UserID,
			DurationSeconds: candidates[0].DurationSeconds,
			PreviousSeconds: rec.DurationSeconds,
			RefreshedAt:     s.now().UTC(),
		}
		if s.cache != nil {
			if data, err := json.Marshal(u); err == nil {
				_ = s.cache.Set(ctx, TrafficCacheKey(rec.ID), data, trafficCacheTTL)
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishTrafficUpdate(ctx, u); err != nil {
				slog.WarnContext(ctx, "publish traffic update failed", "route_id", rec.ID, "error", err)
			}
		}
		report.Updated++
		metrics.TrafficRefreshed.Inc()
	}

	slog.InfoContext(ctx, "traffic refresh done",
		"checked", report.Checked, "updated", report.Updated, "failed", report.Failed)
	return report, nil
}

// Latest returns the cached refresh for a route, if any.
func (s *TrafficRefreshService) Latest(ctx context.Context, routeID string) (*domain.TrafficUpdate, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, TrafficCacheKey(routeID))
	if err != nil {
		return nil, false
	}
	var u domain.TrafficUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, false
	}
	return &u, true
}

// TrafficCacheKey is the cache key holding a route's latest refresh.
func TrafficCacheKey(routeID string) string { return "traffic:" + routeID }
