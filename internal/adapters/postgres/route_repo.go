package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

const routeColumns = `
	id::text, user_id,
	ST_Y(origin::geometry), ST_X(origin::geometry),
	ST_Y(destination::geometry), ST_X(destination::geometry),
	mode, distance, duration, polyline, ai_insights, anonymize, created_at`

// orderColumns whitelists ORDER BY targets.
var orderColumns = map[string]string{
	"created_at": "created_at",
	"distance":   "distance",
	"duration":   "duration",
}

func (r *RouteRepo) Save(ctx context.Context, rec *domain.RouteRecord) error {
	insight, err := json.Marshal(rec.Insight)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO saved_routes (id, user_id, origin, destination, mode, distance, duration, polyline, ai_insights, anonymize, created_at)
		VALUES ($1, $2,
		        ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
		        ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography,
		        $7, $8, $9, $10, $11::jsonb, $12, $13)
	`, rec.ID, rec.UserID,
		rec.Origin.Lng, rec.Origin.Lat,
		rec.Destination.Lng, rec.Destination.Lat,
		string(rec.Mode), rec.DistanceMeters, rec.DurationSeconds, rec.EncodedPath,
		string(insight), rec.Anonymize, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert saved route: %w", err)
	}
	return nil
}

func (r *RouteRepo) GetByID(ctx context.Context, userID, id string) (*domain.RouteRecord, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+routeColumns+`
		FROM saved_routes WHERE id = $1 AND user_id = $2
	`, id, userID)
	rec, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("route not found", nil)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByUser returns a page of the user's routes and the unpaginated total.
func (r *RouteRepo) ListByUser(ctx context.Context, userID string, f domain.RouteFilter) ([]domain.RouteRecord, int, error) {
	col, ok := orderColumns[f.OrderBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT `+routeColumns+`, COUNT(*) OVER()
		FROM saved_routes
		WHERE user_id = $1 AND ($2 = '' OR mode = $2)
		ORDER BY `+col+` `+dir+`, id
		LIMIT $3 OFFSET $4
	`, userID, string(f.Mode), f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		recs  = []domain.RouteRecord{}
		total int
	)
	for rows.Next() {
		var (
			rec     domain.RouteRecord
			mode    string
			insight []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID,
			&rec.Origin.Lat, &rec.Origin.Lng,
			&rec.Destination.Lat, &rec.Destination.Lng,
			&mode, &rec.DistanceMeters, &rec.DurationSeconds, &rec.EncodedPath,
			&insight, &rec.Anonymize, &rec.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		rec.Mode = domain.TravelMode(mode)
		decodeInsight(insight, &rec)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// An offset past the end returns no rows to carry the window count.
	if len(recs) == 0 && f.Offset > 0 {
		if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*)
			FROM saved_routes
			WHERE user_id = $1 AND ($2 = '' OR mode = $2)
		`, userID, string(f.Mode)).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count saved routes: %w", err)
		}
	}
	return recs, total, nil
}

func (r *RouteRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM saved_routes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("route not found", nil)
	}
	return nil
}

func (r *RouteRepo) ListRecent(ctx context.Context, limit int) ([]domain.RouteRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+routeColumns+`
		FROM saved_routes ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.RouteRecord
	for rows.Next() {
		rec, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func scanRoute(row pgx.Row) (*domain.RouteRecord, error) {
	var (
		rec     domain.RouteRecord
		mode    string
		insight []byte
	)
	if err := row.Scan(&rec.ID, &rec.UserID,
		&rec.Origin.Lat, &rec.Origin.Lng,
		&rec.Destination.Lat, &rec.Destination.Lng,
		&mode, &rec.DistanceMeters, &rec.DurationSeconds, &rec.EncodedPath,
		&insight, &rec.Anonymize, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Mode = domain.TravelMode(mode)
	decodeInsight(insight, &rec)
	return &rec, nil
}

// decodeInsight tolerates rows written before insights were structured, where
// ai_insights held a bare JSON string.
func decodeInsight(raw []byte, rec *domain.RouteRecord) {
	if len(raw) == 0 {
		rec.Insight = domain.UnavailableResult("")
		return
	}
	if err := json.Unmarshal(raw, &rec.Insight); err == nil && rec.Insight.Kind != "" {
		return
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		rec.Insight = domain.PlainTextResult(text)
		return
	}
	rec.Insight = domain.UnavailableResult("stored insight could not be decoded")
}
