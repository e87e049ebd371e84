package openweather_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samirrijal/zimroute/internal/adapters/openweather"
	"github.com/samirrijal/zimroute/internal/core/domain"
)

var harare = domain.GeoPoint{Lat: -17.8292, Lng: 31.0522}

func TestFetchCurrent_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/data/2.5/weather" || q.Get("units") != "metric" || q.Get("appid") != "k" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if q.Get("lat") != "-17.8292" || q.Get("lon") != "31.0522" {
			t.Errorf("unexpected coordinates %s,%s", q.Get("lat"), q.Get("lon"))
		}
		_, _ = w.Write([]byte(`{"name":"Harare","dt":1717228800,"weather":[{"main":"Rain","description":"light rain"}],"main":{"temp":19.5,"feels_like":19.1,"humidity":81},"wind":{"speed":3.6}}`))
	}))
	defer srv.Close()

	c := openweather.New(openweather.Config{APIKey: "k", BaseURL: srv.URL})
	snap, err := c.FetchCurrent(context.Background(), harare)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Location != "Harare" || snap.TemperatureC != 19.5 || snap.Conditions != "Rain" || snap.Humidity != 81 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.Raw) == 0 {
		t.Error("expected raw provider payload")
	}
}

func TestFetchCurrent_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   domain.WeatherErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"cod":401}`, domain.WeatherUnauthorized},
		{"forbidden", http.StatusForbidden, ``, domain.WeatherUnauthorized},
		{"server error", http.StatusInternalServerError, ``, domain.WeatherUpstream},
		{"not found", http.StatusNotFound, `{"cod":"404"}`, domain.WeatherUpstream},
		{"bad body", http.StatusOK, `{"main":`, domain.WeatherUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := openweather.New(openweather.Config{APIKey: "k", BaseURL: srv.URL})
			_, err := c.FetchCurrent(context.Background(), harare)
			var werr *domain.WeatherError
			if !errors.As(err, &werr) || werr.Kind != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestFetchCurrent_NetworkError(t *testing.T) {
	c := openweather.New(openweather.Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	_, err := c.FetchCurrent(context.Background(), harare)
	var werr *domain.WeatherError
	if !errors.As(err, &werr) || werr.Kind != domain.WeatherNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestFetchCurrent_MissingKey(t *testing.T) {
	c := openweather.New(openweather.Config{})
	_, err := c.FetchCurrent(context.Background(), harare)
	var werr *domain.WeatherError
	if !errors.As(err, &werr) || werr.Kind != domain.WeatherUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
