package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
	"github.com/samirrijal/zimroute/internal/pkg/telemetry"
)

// FetchRoutes requests alternatives for q. Every failure is logged and
// returned as an empty slice.
func (c *Client) FetchRoutes(ctx context.Context, q domain.RouteQuery) []domain.RouteCandidate {
	ctx, span := telemetry.StartProviderSpan(ctx, providerName, "directions")
	start := time.Now()

	routes, err := c.fetchRoutes(ctx, q)
	telemetry.EndSpan(span, err)
	if err != nil {
		metrics.ObserveProvider(providerName, "error", start)
		slog.ErrorContext(ctx, "google directions request failed", "mode", q.Mode, "error", err)
		return []domain.RouteCandidate{}
	}
	metrics.ObserveProvider(providerName, "ok", start)
	return routes
}

func (c *Client) fetchRoutes(ctx context.Context, q domain.RouteQuery) ([]domain.RouteCandidate, error) {
	if c.apiKey == "" {
		return nil, errors.New("google maps api key is not configured")
	}

	origin, destination := q.Origin, q.Destination
	if q.Anonymize && c.anonymize != nil {
		origin, destination = c.anonymize(origin), c.anonymize(destination)
	}

	params := url.Values{}
	params.Set("origin", origin.String())
	params.Set("destination", destination.String())
	params.Set("mode", q.Mode.ProviderMode())
	params.Set("departure_time", "now")
	params.Set("traffic_model", "best_guess")
	params.Set("alternatives", "true")
	params.Set("units", "metric")
	if avoid := q.Avoid.Values(); len(avoid) > 0 {
		params.Set("avoid", strings.Join(avoid, "|"))
	}
	params.Set("key", c.apiKey)

	resp, err := c.http.Get(ctx, c.baseURL+directionsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("directions http status %d", resp.StatusCode)
	}

	var dr directionsResponse
	if err := json.Unmarshal(resp.Body, &dr); err != nil {
		return nil, fmt.Errorf("parse directions response: %w", err)
	}
	switch dr.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		slog.InfoContext(ctx, "google directions returned no routes", "status", dr.Status)
		return []domain.RouteCandidate{}, nil
	default:
		return nil, fmt.Errorf("directions status %s: %s", dr.Status, dr.ErrorMessage)
	}

	return normalizeRoutes(ctx, dr.Routes), nil
}

// normalizeRoutes keeps the first leg of every route that has one.
func normalizeRoutes(ctx context.Context, raw []route) []domain.RouteCandidate {
	out := make([]domain.RouteCandidate, 0, len(raw))
	for i, r := range raw {
		if len(r.Legs) == 0 {
			slog.WarnContext(ctx, "dropping route without legs", "index", i, "summary", r.Summary)
			metrics.RoutesDropped.Inc()
			continue
		}
		l := r.Legs[0]

		duration := l.Duration.val()
		if l.DurationInTraffic != nil {
			duration = l.DurationInTraffic.Value
		}

		steps := make([]domain.Step, 0, len(l.Steps))
		for _, s := range l.Steps {
			steps = append(steps, domain.Step{
				DistanceMeters:  s.Distance.val(),
				DurationSeconds: s.Duration.val(),
				Instruction:     s.HTMLInstructions,
				EncodedPath:     s.Polyline.Points,
			})
		}

		out = append(out, domain.RouteCandidate{
			DistanceMeters:  l.Distance.val(),
			DurationSeconds: duration,
			EncodedPath:     r.OverviewPolyline.Points,
			Summary:         r.Summary,
			Steps:           steps,
		})
	}
	return out
}
