package geospatial

import (
	"math"
	"math/rand/v2"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

// DefaultMaxOffset is roughly 110 m of latitude.
const DefaultMaxOffset = 0.001

// Jitter returns p moved by an independent uniform offset in [-maxOffset, +maxOffset]
// on each axis. Results stay inside valid coordinate ranges.
func Jitter(p domain.GeoPoint, maxOffset float64) domain.GeoPoint {
	if maxOffset <= 0 {
		return p
	}
	return domain.GeoPoint{
		Lat: clamp(p.Lat+offset(maxOffset), -90, 90),
		Lng: clamp(p.Lng+offset(maxOffset), -180, 180),
	}
}

// Anonymizer applies Jitter with a fixed bound.
type Anonymizer struct {
	MaxOffset float64
}

// NewAnonymizer returns an Anonymizer, using DefaultMaxOffset when maxOffset is not positive.
func NewAnonymizer(maxOffset float64) Anonymizer {
	if maxOffset <= 0 {
		maxOffset = DefaultMaxOffset
	}
	return Anonymizer{MaxOffset: maxOffset}
}

// Anonymize jitters p.
func (a Anonymizer) Anonymize(p domain.GeoPoint) domain.GeoPoint {
	return Jitter(p, a.MaxOffset)
}

func offset(max float64) float64 {
	return (rand.Float64()*2 - 1) * max
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
