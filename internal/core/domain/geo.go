package domain

import (
	"math"
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
// Its text form is "<lat>,<lng>".
type GeoPoint struct {
	Lat float64
	Lng float64
}

// ParseGeoPoint parses a "lat,lng" string.
func ParseGeoPoint(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, Validationf("point", "invalid format for point %q, expected 'lat,lng'", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, Validationf("point", "latitude %q is not a number", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, Validationf("point", "longitude %q is not a number", parts[1])
	}

	p := GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// NewGeoPoint builds a validated point.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate checks the coordinate ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return Validationf("latitude", "latitude must be between -90 and 90 (value: %v)", p.Lat)
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return Validationf("longitude", "longitude must be between -180 and 180 (value: %v)", p.Lng)
	}
	return nil
}

// String formats the point as "lat,lng" using the shortest exact representation.
func (p GeoPoint) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// MarshalText implements encoding.TextMarshaler.
func (p GeoPoint) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *GeoPoint) UnmarshalText(text []byte) error {
	parsed, err := ParseGeoPoint(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Place is a provider place resolved to a point.
type Place struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Point GeoPoint `json:"point"`
}
