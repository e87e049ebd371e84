// Package googlemaps adapts the Google Directions and Place Details web services.
package googlemaps

import (
	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/httpclient"
)

const (
	defaultBaseURL     = "https://maps.googleapis.com"
	directionsEndpoint = "/maps/api/directions/json"
	placeEndpoint      = "/maps/api/place/details/json"

	providerName  = "google_maps"
	placeCacheTTL = 24 * 60 * 60
)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	HTTP    httpclient.Options
	// Anonymize jitters outbound coordinates of queries that request it.
	// Nil leaves coordinates untouched.
	Anonymize func(domain.GeoPoint) domain.GeoPoint
	// Cache stores resolved places. May be nil.
	Cache ports.CacheService
}

// Client implements ports.DirectionsProvider and ports.PlaceResolver.
type Client struct {
	apiKey    string
	baseURL   string
	http      *httpclient.Client
	anonymize func(domain.GeoPoint) domain.GeoPoint
	cache     ports.CacheService
}

// New creates a Google Maps client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		http:      httpclient.New(cfg.HTTP),
		anonymize: cfg.Anonymize,
		cache:     cfg.Cache,
	}
}

var (
	_ ports.DirectionsProvider = (*Client)(nil)
	_ ports.PlaceResolver      = (*Client)(nil)
)
