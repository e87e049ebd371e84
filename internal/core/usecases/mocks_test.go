package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

// --- Mock DirectionsProvider ---

type mockDirections struct {
	fetchFn func(ctx context.Context, q domain.RouteQuery) []domain.RouteCandidate
	queries []domain.RouteQuery
}

func (m *mockDirections) FetchRoutes(ctx context.Context, q domain.RouteQuery) []domain.RouteCandidate {
	m.queries = append(m.queries, q)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, q)
	}
	return nil
}

// --- Mock PlaceResolver ---

type mockPlaces struct {
	places map[string]domain.Place
}

func (m *mockPlaces) Resolve(ctx context.Context, id string) (domain.Place, error) {
	if p, ok := m.places[id]; ok {
		return p, nil
	}
	return domain.Place{}, domain.NotFound("place not found", nil)
}

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	saveFn       func(ctx context.Context, rec *domain.RouteRecord) error
	getByIDFn    func(ctx context.Context, userID, id string) (*domain.RouteRecord, error)
	listByUserFn func(ctx context.Context, userID string, f domain.RouteFilter) ([]domain.RouteRecord, int, error)
	deleteFn     func(ctx context.Context, userID, id string) error
	listRecentFn func(ctx context.Context, limit int) ([]domain.RouteRecord, error)
	saved        []*domain.RouteRecord
}

func (m *mockRouteRepo) Save(ctx context.Context, rec *domain.RouteRecord) error {
	m.saved = append(m.saved, rec)
	if m.saveFn != nil {
		return m.saveFn(ctx, rec)
	}
	return nil
}

func (m *mockRouteRepo) GetByID(ctx context.Context, userID, id string) (*domain.RouteRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID, id)
	}
	return nil, domain.NotFound("route not found", nil)
}

func (m *mockRouteRepo) ListByUser(ctx context.Context, userID string, f domain.RouteFilter) ([]domain.RouteRecord, int, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, f)
	}
	return nil, 0, nil
}

func (m *mockRouteRepo) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockRouteRepo) ListRecent(ctx context.Context, limit int) ([]domain.RouteRecord, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	saved   []*domain.RouteRecord
	traffic []*domain.TrafficUpdate
	err     error
}

func (m *mockPublisher) PublishRouteSaved(ctx context.Context, rec *domain.RouteRecord) error {
	m.saved = append(m.saved, rec)
	return m.err
}

func (m *mockPublisher) PublishTrafficUpdate(ctx context.Context, u *domain.TrafficUpdate) error {
	m.traffic = append(m.traffic, u)
	return m.err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
