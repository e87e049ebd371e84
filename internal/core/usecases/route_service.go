package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// OptimizeRequest is an optimize-route call.
type OptimizeRequest struct {
	Query           domain.RouteQuery
	OriginName      string
	DestinationName string
}

// OptimizeResult is the primary route, the remaining alternatives, advice and the saved record id.
type OptimizeResult struct {
	Primary      domain.RouteCandidate
	Alternatives []domain.RouteCandidate
	Insight      domain.InsightResult
	SavedID      string
}

// SimulateRequest is a simulate-route call between two provider place IDs.
type SimulateRequest struct {
	StartPlaceID string
	EndPlaceID   string
	Mode         domain.TravelMode
	StartName    string
	EndName      string
	Anonymize    bool
}

// SimulateResult is a route between resolved places. It is not persisted.
type SimulateResult struct {
	Start   domain.Place
	End     domain.Place
	Route   domain.RouteCandidate
	Insight domain.InsightResult
}

// RouteService orchestrates directions, advice and persistence.
type RouteService struct {
	directions ports.DirectionsProvider
	places     ports.PlaceResolver
	insights   *InsightService
	routes     ports.RouteRepository
	publisher  ports.EventPublisher
	now        func() time.Time
}

// NewRouteService creates a new RouteService. places and publisher may be nil.
func NewRouteService(
	directions ports.DirectionsProvider,
	places ports.PlaceResolver,
	insights *InsightService,
	routes ports.RouteRepository,
	publisher ports.EventPublisher,
) *RouteService {
	return &RouteService{
		directions: directions,
		places:     places,
		insights:   insights,
		routes:     routes,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Optimize fetches routes, generates advice for the first one and saves it for userID.
func (s *RouteService) Optimize(ctx context.Context, userID string, req OptimizeRequest) (*OptimizeResult, error) {
	q := req.Query
	if err := q.Origin.Validate(); err != nil {
		return nil, err
	}
	if err := q.Destination.Validate(); err != nil {
		return nil, err
	}

	candidates := s.directions.FetchRoutes(ctx, q)
	if len(candidates) == 0 {
		return nil, domain.NotFound("No routes found for the given criteria.", nil)
	}
	primary := candidates[0]
	slog.InfoContext(ctx, "routes found", "count", len(candidates), "mode", q.Mode)

	insight := s.insights.Generate(ctx, insightRequest(
		labelOr(req.OriginName, q.Origin.String()),
		labelOr(req.DestinationName, q.Destination.String()),
		q.Mode, primary,
	))

	rec := &domain.RouteRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Origin:          q.Origin,
		Destination:     q.Destination,
		Mode:            q.Mode,
		DistanceMeters:  primary.DistanceMeters,
		DurationSeconds: primary.DurationSeconds,
		EncodedPath:     primary.EncodedPath,
		Insight:         insight,
		Anonymize:       q.Anonymize,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.routes.Save(ctx, rec); err != nil {
		return nil, domain.Internal("failed to save route", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRouteSaved(ctx, rec); err != nil {
			slog.WarnContext(ctx, "publish route saved failed", "route_id", rec.ID, "error", err)
		}
	}

	alternatives := make([]domain.RouteCandidate, 0, len(candidates)-1)
	alternatives = append(alternatives, candidates[1:]...)

	return &OptimizeResult{
		Primary:      primary,
		Alternatives: alternatives,
		Insight:      insight,
		SavedID:      rec.ID,
	}, nil
}

// Simulate resolves both places and returns the first route with advice.
func (s *RouteService) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	if req.StartPlaceID == "" || req.EndPlaceID == "" || req.Mode == "" || req.StartName == "" || req.EndName == "" {
		return nil, domain.Validationf("", "Missing required parameters (place IDs, names, or mode).")
	}
	if s.places == nil {
		return nil, domain.Internal("place resolver is not configured", nil)
	}

	start, errStart := s.places.Resolve(ctx, req.StartPlaceID)
	end, errEnd := s.places.Resolve(ctx, req.EndPlaceID)
	if errStart != nil || errEnd != nil {
		slog.WarnContext(ctx, "could not resolve places",
			"start", req.StartPlaceID, "end", req.EndPlaceID,
			"start_error", errStart, "end_error", errEnd)
		return nil, domain.Validationf("place_id", "Could not resolve exact coordinates for the provided locations. Please try more specific locations.")
	}

	candidates := s.directions.FetchRoutes(ctx, domain.RouteQuery{
		Origin:      start.Point,
		Destination: end.Point,
		Mode:        req.Mode,
		Anonymize:   req.Anonymize,
	})
	if len(candidates) == 0 {
		return nil, domain.NotFound("No route found for the given locations.", nil)
	}
	primary := candidates[0]

	return &SimulateResult{
		Start:   start,
		End:     end,
		Route:   primary,
		Insight: s.insights.Generate(ctx, insightRequest(req.StartName, req.EndName, req.Mode, primary)),
	}, nil
}

// History returns the caller's saved routes and the total count before pagination.
func (s *RouteService) History(ctx context.Context, userID string, filter domain.RouteFilter) ([]domain.RouteRecord, int, error) {
	switch filter.OrderBy {
	case "":
		filter.OrderBy, filter.Desc = "created_at", true
	case "created_at", "distance", "duration":
	default:
		return nil, 0, domain.Validationf("ordering", "unsupported ordering %q (created_at, distance, duration)", filter.OrderBy)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.routes.ListByUser(ctx, userID, filter)
}

// Get returns one of the caller's saved routes.
func (s *RouteService) Get(ctx context.Context, userID, id string) (*domain.RouteRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NotFound("route not found", nil)
	}
	return s.routes.GetByID(ctx, userID, id)
}

// Delete removes one of the caller's saved routes.
func (s *RouteService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NotFound("route not found", nil)
	}
	return s.routes.Delete(ctx, userID, id)
}

func insightRequest(origin, destination string, mode domain.TravelMode, c domain.RouteCandidate) domain.InsightRequest {
	distance := float64(c.DistanceMeters)
	duration := float64(c.DurationSeconds)
	return domain.InsightRequest{
		OriginLabel:      origin,
		DestinationLabel: destination,
		Mode:             mode,
		DistanceMeters:   &distance,
		DurationSeconds:  &duration,
	}
}
