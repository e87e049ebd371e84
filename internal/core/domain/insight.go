package domain

import (
	"strings"
	"time"
)

// InsightKind tags which InsightResult variant is populated.
type InsightKind string

const (
	InsightStructured  InsightKind = "structured"
	InsightPlainText   InsightKind = "plain_text"
	InsightUnavailable InsightKind = "unavailable"
)

// UnavailableMessage is shown to end users when no advice could be generated.
const UnavailableMessage = "Could not generate AI insights for this route at the moment."

// StructuredInsight is advice the text generator returned as JSON.
type StructuredInsight struct {
	SafetyRating  *int     `json:"safety_rating,omitempty"`
	Alternatives  []string `json:"alternatives"`
	Tips          []string `json:"tips"`
	WeatherImpact string   `json:"weather_impact"`
	KombiStops    []string `json:"kombi_stops"`
}

// InsightResult holds exactly one of Structured, Text or Reason, selected by Kind.
type InsightResult struct {
	Kind       InsightKind        `json:"kind"`
	Structured *StructuredInsight `json:"structured,omitempty"`
	Text       string             `json:"text,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// StructuredResult wraps parsed advice.
func StructuredResult(s StructuredInsight) InsightResult {
	return InsightResult{Kind: InsightStructured, Structured: &s}
}

// PlainTextResult wraps free-form advice verbatim.
func PlainTextResult(text string) InsightResult {
	return InsightResult{Kind: InsightPlainText, Text: text}
}

// UnavailableResult records why no advice was produced. The reason is never empty.
func UnavailableResult(reason string) InsightResult {
	if strings.TrimSpace(reason) == "" {
		reason = "insight provider returned no usable result"
	}
	return InsightResult{Kind: InsightUnavailable, Reason: reason}
}

// Message renders the result as a single user-facing string.
func (r InsightResult) Message() string {
	switch r.Kind {
	case InsightPlainText:
		return r.Text
	case InsightStructured:
		if r.Structured == nil {
			return ""
		}
		parts := make([]string, 0, len(r.Structured.Tips)+1)
		parts = append(parts, r.Structured.Tips...)
		if r.Structured.WeatherImpact != "" {
			parts = append(parts, r.Structured.WeatherImpact)
		}
		return strings.Join(parts, " ")
	default:
		return UnavailableMessage
	}
}

// InsightRequest carries the route facts used to build the prompt.
// Nil distance or duration means the value was absent or non-numeric.
type InsightRequest struct {
	OriginLabel      string
	DestinationLabel string
	Mode             TravelMode
	DistanceMeters   *float64
	DurationSeconds  *float64
	Now              time.Time
	Locale           LocaleContext
}

// LocaleContext localizes the prompt.
type LocaleContext struct {
	Region      string         // e.g. "Zimbabwe"
	City        string         // e.g. "Harare"
	Location    *time.Location // local time zone
	TransitTerm string         // vernacular term for public transit, e.g. "Kombi"
	Preferences string         // free-form user preferences
}
