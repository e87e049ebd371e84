// Package openweather fetches current conditions from OpenWeatherMap.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/httpclient"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
	"github.com/samirrijal/zimroute/internal/pkg/telemetry"
)

const (
	defaultBaseURL  = "https://api.openweathermap.org"
	weatherEndpoint = "/data/2.5/weather"
	providerName    = "openweather"
)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	HTTP    httpclient.Options
}

// Client implements ports.WeatherProvider.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpclient.Client
}

var _ ports.WeatherProvider = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, http: httpclient.New(cfg.HTTP)}
}

type currentResponse struct {
	Name    string `json:"name"`
	Dt      int64  `json:"dt"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// FetchCurrent returns metric conditions at p.
func (c *Client) FetchCurrent(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
	ctx, span := telemetry.StartProviderSpan(ctx, providerName, "current")
	start := time.Now()

	snap, err := c.fetchCurrent(ctx, p)
	telemetry.EndSpan(span, err)
	if err != nil {
		metrics.ObserveProvider(providerName, "error", start)
		return nil, err
	}
	metrics.ObserveProvider(providerName, "ok", start)
	return snap, nil
}

func (c *Client) fetchCurrent(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return nil, &domain.WeatherError{Kind: domain.WeatherUnauthorized, Err: errors.New("openweather api key is not configured")}
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	resp, err := c.http.Get(ctx, c.baseURL+weatherEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &domain.WeatherError{Kind: domain.WeatherNetwork, Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &domain.WeatherError{Kind: domain.WeatherUnauthorized, StatusCode: resp.StatusCode, Err: errors.New("provider rejected credentials")}
	case !resp.OK():
		return nil, &domain.WeatherError{Kind: domain.WeatherUpstream, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var cr currentResponse
	if err := json.Unmarshal(resp.Body, &cr); err != nil {
		return nil, &domain.WeatherError{Kind: domain.WeatherUpstream, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}

	snap := &domain.WeatherSnapshot{
		Location:     cr.Name,
		TemperatureC: cr.Main.Temp,
		FeelsLikeC:   cr.Main.FeelsLike,
		Humidity:     cr.Main.Humidity,
		WindSpeedMS:  cr.Wind.Speed,
		Raw:          json.RawMessage(resp.Body),
	}
	if cr.Dt > 0 {
		snap.ObservedAt = time.Unix(cr.Dt, 0).UTC()
	}
	if len(cr.Weather) > 0 {
		snap.Conditions = cr.Weather[0].Main
		snap.Description = cr.Weather[0].Description
	}
	return snap, nil
}
