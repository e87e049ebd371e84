package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
	"github.com/samirrijal/zimroute/internal/pkg/telemetry"
)

// Resolve looks up a place ID. Any failure, including a response without
// geometry, is a not-found error.
func (c *Client) Resolve(ctx context.Context, placeID string) (domain.Place, error) {
	cacheKey := "place:" + placeID
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var p domain.Place
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("place").Inc()
				return p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("place").Inc()
	}

	ctx, span := telemetry.StartProviderSpan(ctx, providerName, "place_details")
	start := time.Now()
	p, err := c.resolve(ctx, placeID)
	telemetry.EndSpan(span, err)
	if err != nil {
		metrics.ObserveProvider(providerName, "error", start)
		slog.WarnContext(ctx, "could not resolve place", "place_id", placeID, "error", err)
		return domain.Place{}, domain.NotFound("place not found", err)
	}
	metrics.ObserveProvider(providerName, "ok", start)

	if c.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, placeCacheTTL)
		}
	}
	return p, nil
}

func (c *Client) resolve(ctx context.Context, placeID string) (domain.Place, error) {
	if placeID == "" {
		return domain.Place{}, errors.New("empty place id")
	}
	if c.apiKey == "" {
		return domain.Place{}, errors.New("google maps api key is not configured")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "geometry,name")
	params.Set("key", c.apiKey)

	resp, err := c.http.Get(ctx, c.baseURL+placeEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Place{}, err
	}
	if !resp.OK() {
		return domain.Place{}, fmt.Errorf("place details http status %d", resp.StatusCode)
	}

	var pr placeResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		return domain.Place{}, fmt.Errorf("parse place response: %w", err)
	}
	if pr.Status != "" && pr.Status != "OK" {
		return domain.Place{}, fmt.Errorf("place status %s: %s", pr.Status, pr.ErrorMessage)
	}
	if pr.Result == nil || pr.Result.Geometry == nil || pr.Result.Geometry.Location == nil {
		return domain.Place{}, errors.New("place has no geometry")
	}

	loc := pr.Result.Geometry.Location
	point, err := domain.NewGeoPoint(loc.Lat, loc.Lng)
	if err != nil {
		return domain.Place{}, fmt.Errorf("place geometry: %w", err)
	}
	name := pr.Result.Name
	if name == "" {
		name = placeID
	}
	slog.InfoContext(ctx, "resolved place", "place_id", placeID, "name", name)
	return domain.Place{ID: placeID, Name: name, Point: point}, nil
}
