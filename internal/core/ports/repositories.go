package ports

import (
	"context"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

// RouteRepository persists optimized routes.
type RouteRepository interface {
	Save(ctx context.Context, rec *domain.RouteRecord) error
	// GetByID returns the caller's saved route or a not-found error.
	GetByID(ctx context.Context, userID, id string) (*domain.RouteRecord, error)
	ListByUser(ctx context.Context, userID string, filter domain.RouteFilter) ([]domain.RouteRecord, int, error)
	Delete(ctx context.Context, userID, id string) error
	// ListRecent returns the most recently saved routes across all users.
	ListRecent(ctx context.Context, limit int) ([]domain.RouteRecord, error)
}
