package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/types"
)

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a category name
func Slugify(name string) string {
	slug := slugCleanup.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// CategoryRepository handles curation category persistence
type CategoryRepository struct {
	db *PostgresDB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *PostgresDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category. Names must be unique by slug.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.Name == "" {
		return &types.ServiceError{
			Code:    "INVALID_PARAMETER",
			Message: "category name cannot be empty",
		}
	}

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	category.Slug = Slugify(category.Name)
	category.CreatedAt = time.Now()

	exists, err := r.existsBySlug(ctx, category.Slug)
	if err != nil {
		return err
	}
	if exists {
		return &types.ServiceError{
			Code:    "CATEGORY_EXISTS",
			Message: fmt.Sprintf("category already exists: %s", category.Slug),
		}
	}

	query := `
		INSERT INTO categories (id, name, slug, description, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.Color,
		category.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.color, c.created_at,
		       COUNT(ac.token_id) AS artworks
		FROM categories c
		LEFT JOIN artwork_categories ac ON ac.category_id = c.id
		WHERE c.slug = $1
		GROUP BY c.id
	`

	var category models.Category
	err := r.db.Pool().QueryRow(ctx, query, slug).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.Color,
		&category.CreatedAt,
		&category.Artworks,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "CATEGORY_NOT_FOUND",
				Message: fmt.Sprintf("category not found: %s", slug),
			}
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// List retrieves all categories with their artwork counts
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.color, c.created_at,
		       COUNT(ac.token_id) AS artworks
		FROM categories c
		LEFT JOIN artwork_categories ac ON ac.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.Description,
			&category.Color,
			&category.CreatedAt,
			&category.Artworks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Delete deletes a category and its artwork assignments
func (r *CategoryRepository) Delete(ctx context.Context, slug string) error {
	query := `DELETE FROM categories WHERE slug = $1`

	result, err := r.db.Pool().Exec(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &types.ServiceError{
			Code:    "CATEGORY_NOT_FOUND",
			Message: fmt.Sprintf("category not found: %s", slug),
		}
	}

	return nil
}

// AssignArtwork tags an artwork with a category. Assigning twice is a no-op.
func (r *CategoryRepository) AssignArtwork(ctx context.Context, slug, tokenID string) error {
	category, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO artwork_categories (category_id, token_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, token_id) DO NOTHING
	`

	if _, err := r.db.Pool().Exec(ctx, query, category.ID, tokenID, time.Now()); err != nil {
		return fmt.Errorf("failed to assign artwork to category: %w", err)
	}

	return nil
}

// UnassignArtwork removes a category tag from an artwork
func (r *CategoryRepository) UnassignArtwork(ctx context.Context, slug, tokenID string) error {
	category, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	query := `DELETE FROM artwork_categories WHERE category_id = $1 AND token_id = $2`

	if _, err := r.db.Pool().Exec(ctx, query, category.ID, tokenID); err != nil {
		return fmt.Errorf("failed to unassign artwork from category: %w", err)
	}

	return nil
}

// ReplaceArtworkCategories replaces an artwork's full category assignment
// set. Every slug must name an existing category; unknown slugs fail the
// whole replacement.
func (r *CategoryRepository) ReplaceArtworkCategories(ctx context.Context, tokenID string, slugs []string) error {
	ids := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		category, err := r.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		ids = append(ids, category.ID)
	}

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM artwork_categories WHERE token_id = $1`, tokenID); err != nil {
		return fmt.Errorf("failed to clear artwork categories: %w", err)
	}

	insertQuery := `
		INSERT INTO artwork_categories (category_id, token_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, token_id) DO NOTHING
	`
	now := time.Now()
	for _, id := range ids {
		if _, err := tx.Exec(ctx, insertQuery, id, tokenID, now); err != nil {
			return fmt.Errorf("failed to assign artwork category: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit category replacement: %w", err)
	}

	return nil
}

// CategoriesForArtwork retrieves the category slugs assigned to an artwork
func (r *CategoryRepository) CategoriesForArtwork(ctx context.Context, tokenID string) ([]string, error) {
	query := `
		SELECT c.slug
		FROM categories c
		JOIN artwork_categories ac ON ac.category_id = c.id
		WHERE ac.token_id = $1
		ORDER BY c.slug
	`

	rows, err := r.db.Pool().Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork categories: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan category slug: %w", err)
		}
		slugs = append(slugs, slug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artwork categories: %w", err)
	}

	return slugs, nil
}

// CategoriesForArtworks retrieves category slugs for a set of artworks
func (r *CategoryRepository) CategoriesForArtworks(ctx context.Context, tokenIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(tokenIDs))
	if len(tokenIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ac.token_id, c.slug
		FROM categories c
		JOIN artwork_categories ac ON ac.category_id = c.id
		WHERE ac.token_id = ANY($1)
		ORDER BY c.slug
	`

	rows, err := r.db.Pool().Query(ctx, query, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories for artworks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tokenID, slug string
		if err := rows.Scan(&tokenID, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan artwork category: %w", err)
		}
		result[tokenID] = append(result[tokenID], slug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artwork categories: %w", err)
	}

	return result, nil
}

// TokensForCategory retrieves the token IDs tagged with a category
func (r *CategoryRepository) TokensForCategory(ctx context.Context, slug string) ([]string, error) {
	category, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT token_id
		FROM artwork_categories
		WHERE category_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, category.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category artworks: %w", err)
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
		return nil, fmt.Errorf("error iterating category artworks: %w", err)
	}

	return tokens, nil
}

func (r *CategoryRepository) existsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)`

	err := r.db.Pool().QueryRow(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category existence: %w", err)
	}

	return exists, nil
}
