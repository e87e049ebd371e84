//go:build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	handler "github.com/samirrijal/zimroute/internal/adapters/http"
	"github.com/samirrijal/zimroute/internal/adapters/postgres"
	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/usecases"
	"github.com/samirrijal/zimroute/internal/pkg/config"
)

// setupTestDB connects to the database named by the test configuration.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("zimroute-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Skipf("database not available: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps wires the real repository with fake providers.
func setupTestDeps(t *testing.T, db *postgres.DB, f *fixture) *handler.Dependencies {
	t.Helper()
	repo := postgres.NewRouteRepo(db)
	insights := usecases.NewInsightService(f.generator, usecases.DefaultLocale)
	return &handler.Dependencies{
		Routes:   usecases.NewRouteService(f.directions, f.places, insights, repo, nil),
		Insights: insights,
		Weather:  usecases.NewWeatherService(f.weather, nil),
		Traffic:  usecases.NewTrafficRefreshService(repo, f.directions, f.cache, nil),
		DB:       db,
	}
}

func TestIntegration_OptimizeHistoryDelete(t *testing.T) {
	db := setupTestDB(t)
	f := newFixture()
	f.directions.fetchFn = func(ctx context.Context, q domain.RouteQuery) []domain.RouteCandidate {
		return []domain.RouteCandidate{
			{DistanceMeters: 3200, DurationSeconds: 600, EncodedPath: "abc"},
			{DistanceMeters: 3900, DurationSeconds: 660, EncodedPath: "def"},
		}
	}
	app := setupApp(setupTestDeps(t, db, f))

	resp := postJSON(t, app, "/v1/routes/optimize", map[string]any{
		"origin":      "-17.8292,31.0522",
		"destination": "-17.8216,31.0492",
		"mode":        "kombi",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("optimize: expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var opt struct {
		SavedRouteID string            `json:"saved_route_id"`
		Alternatives []json.RawMessage `json:"alternatives"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &opt)
	if opt.SavedRouteID == "" || len(opt.Alternatives) != 1 {
		t.Fatalf("unexpected optimize result %+v", opt)
	}
	t.Cleanup(func() {
		_ = postgres.NewRouteRepo(db).Delete(context.Background(), handler.DevUserID, opt.SavedRouteID)
	})

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/history?mode=kombi&ordering=-created_at", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("history: expected 200, got %d", resp.StatusCode)
	}
	var page struct {
		Data []domain.RouteRecord `json:"data"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &page)
	if len(page.Data) == 0 || page.Data[0].ID != opt.SavedRouteID {
		t.Fatalf("expected newest saved route first, got %+v", page.Data)
	}
	if page.Data[0].Origin != (domain.GeoPoint{Lat: -17.8292, Lng: 31.0522}) {
		t.Errorf("expected unanonymized origin, got %v", page.Data[0].Origin)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/routes/"+opt.SavedRouteID, nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("detail: expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/routes/"+opt.SavedRouteID, nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/routes/"+opt.SavedRouteID, nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_Ready(t *testing.T) {
	db := setupTestDB(t)
	app := setupApp(setupTestDeps(t, db, newFixture()))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
