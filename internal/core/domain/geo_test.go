package domain_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

func TestParseGeoPoint_RoundTrip(t *testing.T) {
	for _, s := range []string{"-17.8292,31.0522", "0,0", "90,-180", "-89.999999,179.5", "1.5, 2.25"} {
		p, err := domain.ParseGeoPoint(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		again, err := domain.ParseGeoPoint(p.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", p.String(), err)
		}
		if math.Abs(again.Lat-p.Lat) > 1e-12 || math.Abs(again.Lng-p.Lng) > 1e-12 {
			t.Errorf("round trip %q: got %v, want %v", s, again, p)
		}
	}
}

func TestParseGeoPoint_Malformed(t *testing.T) {
	for _, s := range []string{"", "-17.8292", "1,2,3", "abc,31", "-17.8,xyz", ",", "91,0", "0,181", "NaN,0", "Inf,0"} {
		p, err := domain.ParseGeoPoint(s)
		if err == nil {
			t.Errorf("expected error for %q, got %v", s, p)
			continue
		}
		if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("expected validation error for %q, got %v", s, err)
		}
		if p != (domain.GeoPoint{}) {
			t.Errorf("expected zero point on failure for %q, got %v", s, p)
		}
	}
}

func TestGeoPoint_JSONText(t *testing.T) {
	type body struct {
		Origin domain.GeoPoint `json:"origin"`
	}
	var b body
	if err := json.Unmarshal([]byte(`{"origin":"-17.8292,31.0522"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Origin.Lat != -17.8292 || b.Origin.Lng != 31.0522 {
		t.Errorf("unexpected point %v", b.Origin)
	}
	out, _ := json.Marshal(b)
	if string(out) != `{"origin":"-17.8292,31.0522"}` {
		t.Errorf("unexpected JSON %s", out)
	}
	if err := json.Unmarshal([]byte(`{"origin":"bad"}`), &b); err == nil {
		t.Error("expected error for malformed point")
	}
}
