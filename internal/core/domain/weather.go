package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// WeatherSnapshot is the current weather at a point.
type WeatherSnapshot struct {
	Location     string          `json:"location"`
	TemperatureC float64         `json:"temperature_c"`
	FeelsLikeC   float64         `json:"feels_like_c"`
	Conditions   string          `json:"conditions"`
	Description  string          `json:"description"`
	Humidity     int             `json:"humidity"`
	WindSpeedMS  float64         `json:"wind_speed_ms"`
	ObservedAt   time.Time       `json:"observed_at"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// WeatherErrorKind classifies weather provider failures.
type WeatherErrorKind string

const (
	WeatherUnauthorized WeatherErrorKind = "unauthorized"
	WeatherUpstream     WeatherErrorKind = "upstream"
	WeatherNetwork      WeatherErrorKind = "network"
)

// WeatherError is returned by weather providers.
type WeatherError struct {
	Kind       WeatherErrorKind
	StatusCode int
	Err        error
}

func (e *WeatherError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("weather %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("weather %s: %v", e.Kind, e.Err)
}

func (e *WeatherError) Unwrap() error { return e.Err }
