package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/luloxi/molotov/internal/models"
)

// StatsRepository handles per-artwork engagement counters and likes
type StatsRepository struct {
	db *PostgresDB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *PostgresDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetStats retrieves the counters for an artwork. A token nobody has viewed
// or liked yet gets zero counters, not an error.
func (r *StatsRepository) GetStats(ctx context.Context, tokenID string) (*models.ArtworkStats, error) {
	query := `
		SELECT token_id, views, likes
		FROM artwork_stats
		WHERE token_id = $1
	`

	var stats models.ArtworkStats
	err := r.db.Pool().QueryRow(ctx, query, tokenID).Scan(
		&stats.TokenID,
		&stats.Views,
		&stats.Likes,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.ArtworkStats{TokenID: tokenID}, nil
		}
		return nil, fmt.Errorf("failed to get artwork stats: %w", err)
	}

	return &stats, nil
}

// GetStatsBatch retrieves counters for a set of artworks in one query.
// Tokens without a row are absent from the result map.
func (r *StatsRepository) GetStatsBatch(ctx context.Context, tokenIDs []string) (map[string]*models.ArtworkStats, error) {
	result := make(map[string]*models.ArtworkStats, len(tokenIDs))
	if len(tokenIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT token_id, views, likes
		FROM artwork_stats
		WHERE token_id = ANY($1)
	`

	rows, err := r.db.Pool().Query(ctx, query, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork stats batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stats models.ArtworkStats
		if err := rows.Scan(&stats.TokenID, &stats.Views, &stats.Likes); err != nil {
			return nil, fmt.Errorf("failed to scan artwork stats: %w", err)
		}
		result[stats.TokenID] = &stats
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artwork stats: %w", err)
	}

	return result, nil
}

// IncrementViews bumps the view counter for an artwork, creating the counter
// row on first view.
func (r *StatsRepository) IncrementViews(ctx context.Context, tokenID string) (int64, error) {
	query := `
		INSERT INTO artwork_stats (token_id, views, likes, updated_at)
		VALUES ($1, 1, 0, $2)
		ON CONFLICT (token_id)
		DO UPDATE SET views = artwork_stats.views + 1, updated_at = $2
		RETURNING views
	`

	var views int64
	if err := r.db.Pool().QueryRow(ctx, query, tokenID, time.Now()).Scan(&views); err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}

	return views, nil
}

// HasLiked checks whether a user currently likes an artwork
func (r *StatsRepository) HasLiked(ctx context.Context, tokenID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM artwork_likes WHERE token_id = $1 AND user_id = $2)`

	err := r.db.Pool().QueryRow(ctx, query, tokenID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}

	return exists, nil
}

// ToggleLike flips a user's like on an artwork and keeps the counter in
// sync. Returns the new liked state and like count.
func (r *StatsRepository) ToggleLike(ctx context.Context, tokenID, userID string) (liked bool, likes int64, err error) {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	deleteQuery := `DELETE FROM artwork_likes WHERE token_id = $1 AND user_id = $2`
	result, err := tx.Exec(ctx, deleteQuery, tokenID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to remove like: %w", err)
	}

	var delta int64
	if result.RowsAffected() > 0 {
		liked = false
		delta = -1
	} else {
		insertQuery := `
			INSERT INTO artwork_likes (id, token_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, insertQuery, uuid.New().String(), tokenID, userID, time.Now()); err != nil {
			return false, 0, fmt.Errorf("failed to add like: %w", err)
		}
		liked = true
		delta = 1
	}

	counterQuery := `
		INSERT INTO artwork_stats (token_id, views, likes, updated_at)
		VALUES ($1, 0, GREATEST($2, 0), $3)
		ON CONFLICT (token_id)
		DO UPDATE SET likes = GREATEST(artwork_stats.likes + $2, 0), updated_at = $3
		RETURNING likes
	`
	if err := tx.QueryRow(ctx, counterQuery, tokenID, delta, time.Now()).Scan(&likes); err != nil {
		return false, 0, fmt.Errorf("failed to update like counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to commit like toggle: %w", err)
	}

	return liked, likes, nil
}

// ListLikes retrieves the users who like an artwork, newest first
func (r *StatsRepository) ListLikes(ctx context.Context, tokenID string, limit int) ([]*models.ArtworkLike, error) {
	query := `
		SELECT id, token_id, user_id, created_at
		FROM artwork_likes
		WHERE token_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool().Query(ctx, query, tokenID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	var likes []*models.ArtworkLike
	for rows.Next() {
		var like models.ArtworkLike
		if err := rows.Scan(&like.ID, &like.TokenID, &like.UserID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, &like)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating likes: %w", err)
	}

	return likes, nil
}

// LikedTokens retrieves the token IDs a user likes
func (r *StatsRepository) LikedTokens(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT token_id
		FROM artwork_likes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tokenID string
		if err := rows.Scan(&tokenID); err != nil {
			return nil, fmt.Errorf("failed to scan liked token: %w", err)
		}
		tokens = append(tokens, tokenID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liked tokens: %w", err)
	}

	return tokens, nil
}
