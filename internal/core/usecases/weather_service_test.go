package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/usecases"
)

type mockWeather struct {
	calls   int
	fetchFn func(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error)
}

func (m *mockWeather) FetchCurrent(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
	m.calls++
	return m.fetchFn(ctx, p)
}

func TestWeatherService_CachesSnapshot(t *testing.T) {
	provider := &mockWeather{fetchFn: func(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
		return &domain.WeatherSnapshot{Location: "Harare", TemperatureC: 24.5}, nil
	}}
	svc := usecases.NewWeatherService(provider, newMockCache())
	p := domain.GeoPoint{Lat: -17.8292, Lng: 31.0522}

	for i := 0; i < 3; i++ {
		snap, err := svc.Current(context.Background(), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Location != "Harare" {
			t.Errorf("expected Harare, got %s", snap.Location)
		}
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
}

func TestWeatherService_PassesTypedError(t *testing.T) {
	provider := &mockWeather{fetchFn: func(ctx context.Context, p domain.GeoPoint) (*domain.WeatherSnapshot, error) {
		return nil, &domain.WeatherError{Kind: domain.WeatherUnauthorized, StatusCode: 401, Err: errors.New("invalid key")}
	}}
	svc := usecases.NewWeatherService(provider, nil)

	_, err := svc.Current(context.Background(), domain.GeoPoint{Lat: 1, Lng: 1})
	var werr *domain.WeatherError
	if !errors.As(err, &werr) || werr.Kind != domain.WeatherUnauthorized {
		t.Fatalf("expected unauthorized weather error, got %v", err)
	}
}

func TestWeatherService_InvalidPoint(t *testing.T) {
	svc := usecases.NewWeatherService(&mockWeather{}, nil)
	if _, err := svc.Current(context.Background(), domain.GeoPoint{Lat: 91}); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
