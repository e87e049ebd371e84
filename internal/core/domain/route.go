package domain

import (
	"strings"
	"time"
)

// TravelMode is the requested means of transport.
type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
	ModeTransit   TravelMode = "transit"
	ModeKombi     TravelMode = "kombi" // shared minibus taxi, routed as transit
)

// ParseTravelMode parses a mode case-insensitively. Empty means driving.
func ParseTravelMode(s string) (TravelMode, error) {
	switch m := TravelMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeDriving, nil
	case ModeDriving, ModeWalking, ModeBicycling, ModeTransit, ModeKombi:
		return m, nil
	default:
		return "", Validationf("mode", "unsupported transport mode %q (driving, walking, bicycling, transit, kombi)", s)
	}
}

// ProviderMode is the mode sent to the directions provider.
func (m TravelMode) ProviderMode() string {
	if m == ModeKombi {
		return string(ModeTransit)
	}
	if m == "" {
		return string(ModeDriving)
	}
	return string(m)
}

// IsPublicTransit reports whether the mode uses public transport.
func (m TravelMode) IsPublicTransit() bool {
	return m == ModeTransit || m == ModeKombi
}

// Avoid holds route features to avoid.
type Avoid struct {
	Highways bool `json:"highways"`
	Tolls    bool `json:"tolls"`
}

// Values returns the provider avoid tokens in a stable order.
func (a Avoid) Values() []string {
	var out []string
	if a.Highways {
		out = append(out, "highways")
	}
	if a.Tolls {
		out = append(out, "tolls")
	}
	return out
}

// RouteQuery is a directions request.
type RouteQuery struct {
	Origin      GeoPoint
	Destination GeoPoint
	Mode        TravelMode
	Avoid       Avoid
	// Anonymize jitters the coordinates sent to the provider only.
	Anonymize bool
}

// Step is one manoeuvre of a route leg.
type Step struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Instruction     string `json:"instruction"` // may contain HTML markup
	EncodedPath     string `json:"encoded_path"`
}

// RouteCandidate is one normalized route alternative.
type RouteCandidate struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"` // traffic-adjusted when available
	EncodedPath     string `json:"encoded_path"`
	Summary         string `json:"summary,omitempty"`
	Steps           []Step `json:"steps"`
}

// RouteRecord is a saved route.
type RouteRecord struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Origin          GeoPoint      `json:"origin"`
	Destination     GeoPoint      `json:"destination"`
	Mode            TravelMode    `json:"mode"`
	DistanceMeters  int           `json:"distance"`
	DurationSeconds int           `json:"duration"`
	EncodedPath     string        `json:"polyline"`
	Insight         InsightResult `json:"ai_insights"`
	// Anonymize records that the caller asked for location privacy. Later
	// provider queries for this route are jittered too.
	Anonymize bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// RouteFilter narrows a history listing.
type RouteFilter struct {
	Mode    TravelMode
	OrderBy string // created_at, distance or duration
	Desc    bool
	Offset  int
	Limit   int
}

// TrafficUpdate is published when a saved route's duration is re-estimated.
type TrafficUpdate struct {
	RouteID         string    `json:"route_id"`
	UserID          string    `json:"user_id"`
	DurationSeconds int       `json:"duration_seconds"`
	PreviousSeconds int       `json:"previous_seconds"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}
