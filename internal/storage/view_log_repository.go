package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luloxi/molotov/internal/models"
)

// ViewLogRepository appends raw artwork view events to ClickHouse. The log
// is insert-only; the Postgres counters are the serving source of truth and
// this table exists for dedupe checks and analytics over the raw stream.
type ViewLogRepository struct {
	db *ClickHouseDB
}

// NewViewLogRepository creates a new view log repository
func NewViewLogRepository(db *ClickHouseDB) *ViewLogRepository {
	return &ViewLogRepository{db: db}
}

// Insert appends one view event to the log
func (r *ViewLogRepository) Insert(ctx context.Context, view *models.ViewEvent) error {
	if view.ID == "" {
		view.ID = uuid.New().String()
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO artwork_views (id, token_id, user_id, ip_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	err := r.db.Exec(ctx, query,
		view.ID,
		view.TokenID,
		view.UserID,
		view.IPHash,
		view.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert view event: %w", err)
	}

	return nil
}

// RecentViewExists reports whether the same viewer hash already viewed the
// token inside the dedupe window.
func (r *ViewLogRepository) RecentViewExists(ctx context.Context, tokenID, ipHash string, window time.Duration) (bool, error) {
	query := `
		SELECT count() > 0
		FROM artwork_views
		WHERE token_id = ? AND ip_hash = ? AND created_at >= ?
	`

	since := time.Now().Add(-window)

	var exists bool
	row := r.db.Conn().QueryRow(ctx, query, tokenID, ipHash, since)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check recent view: %w", err)
	}

	return exists, nil
}

// TotalViews counts all logged views for a token
func (r *ViewLogRepository) TotalViews(ctx context.Context, tokenID string) (uint64, error) {
	query := `SELECT count() FROM artwork_views WHERE token_id = ?`

	var count uint64
	row := r.db.Conn().QueryRow(ctx, query, tokenID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}

	return count, nil
}

// ViewsByDay aggregates daily view counts for a token over a trailing window
func (r *ViewLogRepository) ViewsByDay(ctx context.Context, tokenID string, days int) (map[string]uint64, error) {
	query := `
		SELECT toDate(created_at) AS day, count() AS views
		FROM artwork_views
		WHERE token_id = ? AND created_at >= ?
		GROUP BY day
		ORDER BY day
	`

	since := time.Now().AddDate(0, 0, -days)

	rows, err := r.db.Conn().Query(ctx, query, tokenID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily views: %w", err)
	}
	defer rows.Close()

	result := make(map[string]uint64)
	for rows.Next() {
		var day time.Time
		var views uint64
		if err := rows.Scan(&day, &views); err != nil {
			return nil, fmt.Errorf("failed to scan daily views: %w", err)
		}
		result[day.Format("2006-01-02")] = views
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily views: %w", err)
	}

	return result, nil
}

// TopViewed returns the most viewed token IDs over a trailing window
func (r *ViewLogRepository) TopViewed(ctx context.Context, since time.Time, limit int) ([]string, error) {
	query := `
		SELECT token_id
		FROM artwork_views
		WHERE created_at >= ?
		GROUP BY token_id
		ORDER BY count() DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top viewed tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tokenID string
		if err := rows.Scan(&tokenID); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, tokenID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top viewed tokens: %w", err)
	}

	return tokens, nil
}
