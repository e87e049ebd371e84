package googlemaps_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/samirrijal/zimroute/internal/adapters/googlemaps"
	"github.com/samirrijal/zimroute/internal/core/domain"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error { return nil }

func TestResolve_Place(t *testing.T) {
	srv, rec := fakeGoogle(t, http.StatusOK, `{"status":"OK","result":{"name":"Eastgate","geometry":{"location":{"lat":-17.8312,"lng":31.0529}}}}`)
	cache := &memCache{data: map[string][]byte{}}
	c := googlemaps.New(googlemaps.Config{APIKey: "k", BaseURL: srv.URL, Cache: cache})

	p, err := c.Resolve(context.Background(), "ChIJ123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Eastgate" || p.Point.Lat != -17.8312 || p.Point.Lng != 31.0529 {
		t.Errorf("unexpected place %+v", p)
	}
	q := rec.last()
	if q.Get("place_id") != "ChIJ123" || q.Get("fields") != "geometry,name" {
		t.Errorf("unexpected query %v", q)
	}
	if rec.paths[0] != "/maps/api/place/details/json" {
		t.Errorf("unexpected path %s", rec.paths[0])
	}

	if _, err := c.Resolve(context.Background(), "ChIJ123"); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if len(rec.queries) != 1 {
		t.Errorf("expected second resolve from cache, got %d requests", len(rec.queries))
	}
}

func TestResolve_FailuresAreNotFound(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"missing geometry": {http.StatusOK, `{"status":"OK","result":{"name":"Nowhere"}}`},
		"invalid request":  {http.StatusOK, `{"status":"INVALID_REQUEST"}`},
		"http error":       {http.StatusBadGateway, ``},
		"malformed body":   {http.StatusOK, `not json`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := fakeGoogle(t, tc.status, tc.body)
			c := googlemaps.New(googlemaps.Config{APIKey: "k", BaseURL: srv.URL})
			_, err := c.Resolve(context.Background(), "id")
			if domain.KindOf(err) != domain.KindNotFound {
				t.Errorf("expected not found, got %v", err)
			}
		})
	}
}

func TestResolve_TransportFailureIsNotFound(t *testing.T) {
	c := googlemaps.New(googlemaps.Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := c.Resolve(context.Background(), "id"); domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
