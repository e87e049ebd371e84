package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/pkg/geospatial"
)

func TestJitter_StaysWithinBound(t *testing.T) {
	in := domain.GeoPoint{Lat: -17.8292, Lng: 31.0522}
	const max = 0.001

	moved := 0
	for i := 0; i < 10000; i++ {
		out := geospatial.Jitter(in, max)
		if d := math.Abs(out.Lat - in.Lat); d > max {
			t.Fatalf("trial %d: latitude moved %v, want <= %v", i, d, max)
		}
		if d := math.Abs(out.Lng - in.Lng); d > max {
			t.Fatalf("trial %d: longitude moved %v, want <= %v", i, d, max)
		}
		if out != in {
			moved++
		}
	}
	if moved == 0 {
		t.Error("expected jitter to move the point at least once")
	}
}

func TestJitter_ClampsAtPoles(t *testing.T) {
	in := domain.GeoPoint{Lat: 90, Lng: 180}
	for i := 0; i < 1000; i++ {
		out := geospatial.Jitter(in, 0.5)
		if err := out.Validate(); err != nil {
			t.Fatalf("jittered point invalid: %v", err)
		}
	}
}

func TestJitter_ZeroOffsetIsIdentity(t *testing.T) {
	in := domain.GeoPoint{Lat: 1, Lng: 2}
	if out := geospatial.Jitter(in, 0); out != in {
		t.Errorf("expected %v, got %v", in, out)
	}
}

func TestNewAnonymizer_DefaultOffset(t *testing.T) {
	a := geospatial.NewAnonymizer(0)
	if a.MaxOffset != geospatial.DefaultMaxOffset {
		t.Errorf("expected default offset %v, got %v", geospatial.DefaultMaxOffset, a.MaxOffset)
	}
}
