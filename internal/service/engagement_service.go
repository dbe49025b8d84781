package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/errors"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/storage"
)

// ViewDedupeWindow is how long a viewer hash suppresses repeat view counts
// for the same token.
const ViewDedupeWindow = time.Hour

// StatsStore is the Postgres side of engagement persistence.
type StatsStore interface {
	GetStats(ctx context.Context, tokenID string) (*models.ArtworkStats, error)
	IncrementViews(ctx context.Context, tokenID string) (int64, error)
	ToggleLike(ctx context.Context, tokenID, userID string) (liked bool, likes int64, err error)
	HasLiked(ctx context.Context, tokenID, userID string) (bool, error)
	LikedTokens(ctx context.Context, userID string) ([]string, error)
	ListLikes(ctx context.Context, tokenID string, limit int) ([]*models.ArtworkLike, error)
}

// ViewLog is the ClickHouse side: the append-only raw view stream.
type ViewLog interface {
	Insert(ctx context.Context, view *models.ViewEvent) error
	RecentViewExists(ctx context.Context, tokenID, ipHash string, window time.Duration) (bool, error)
	TotalViews(ctx context.Context, tokenID string) (uint64, error)
	ViewsByDay(ctx context.Context, tokenID string, days int) (map[string]uint64, error)
	TopViewed(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// CategoryStore is the curation tag persistence.
type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, slug string) error
	AssignArtwork(ctx context.Context, slug, tokenID string) error
	UnassignArtwork(ctx context.Context, slug, tokenID string) error
	CategoriesForArtwork(ctx context.Context, tokenID string) ([]string, error)
	ReplaceArtworkCategories(ctx context.Context, tokenID string, slugs []string) error
}

// EngagementService handles the off-chain interaction surface: view counts,
// likes and curation categories. Viewer identity is never stored raw; views
// are deduped on a truncated digest of the caller's address and the token.
type EngagementService struct {
	stats      StatsStore
	views      ViewLog
	categories CategoryStore
	cache      *storage.CacheService
	window     time.Duration
	logger     *logging.Logger
}

// NewEngagementService creates a new engagement service. cache may be nil.
func NewEngagementService(stats StatsStore, views ViewLog, categories CategoryStore, cache *storage.CacheService) *EngagementService {
	return &EngagementService{
		stats:      stats,
		views:      views,
		categories: categories,
		cache:      cache,
		window:     ViewDedupeWindow,
		logger:     logging.GetGlobalLogger().WithField("component", "engagement_service"),
	}
}

// HashViewer derives the stored viewer identity for view dedupe. The raw IP
// never leaves this function.
func HashViewer(ip, tokenID string) string {
	sum := sha256.Sum256([]byte(ip + tokenID))
	return hex.EncodeToString(sum[:])[:16]
}

// ViewResult reports the outcome of a view recording.
type ViewResult struct {
	Counted bool  `json:"counted"`
	Views   int64 `json:"views"`
}

// RecordView logs a view and bumps the counter unless the same viewer
// already viewed this token inside the dedupe window.
func (s *EngagementService) RecordView(ctx context.Context, tokenID, ip, userID string) (*ViewResult, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}

	ipHash := HashViewer(ip, tokenID)

	seen, err := s.views.RecentViewExists(ctx, tokenID, ipHash, s.window)
	if err != nil {
		return nil, errors.NewDatabaseError("view dedupe check", err)
	}
	if seen {
		stats, err := s.stats.GetStats(ctx, tokenID)
		if err != nil {
			return nil, errors.NewDatabaseError("stats lookup", err)
		}
		return &ViewResult{Counted: false, Views: stats.Views}, nil
	}

	view := &models.ViewEvent{
		TokenID:   tokenID,
		UserID:    chain.NormalizeAddress(userID),
		IPHash:    ipHash,
		CreatedAt: time.Now(),
	}
	if err := s.views.Insert(ctx, view); err != nil {
		return nil, errors.NewDatabaseError("view insert", err)
	}

	views, err := s.stats.IncrementViews(ctx, tokenID)
	if err != nil {
		return nil, errors.NewDatabaseError("view count update", err)
	}

	s.invalidate(ctx, tokenID)
	return &ViewResult{Counted: true, Views: views}, nil
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

// ToggleLike flips a user's like on an artwork.
func (s *EngagementService) ToggleLike(ctx context.Context, tokenID, userAddress string) (*LikeResult, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}
	if !chain.ValidateAddress(userAddress) {
		return nil, errors.NewInvalidAddressError(userAddress)
	}

	liked, likes, err := s.stats.ToggleLike(ctx, tokenID, chain.NormalizeAddress(userAddress))
	if err != nil {
		return nil, errors.NewDatabaseError("like toggle", err)
	}

	s.invalidate(ctx, tokenID)
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

// HasLiked reports whether a user currently likes an artwork.
func (s *EngagementService) HasLiked(ctx context.Context, tokenID, userAddress string) (bool, error) {
	if !ValidateTokenID(tokenID) {
		return false, errors.NewInvalidTokenIDError(tokenID)
	}
	if !chain.ValidateAddress(userAddress) {
		return false, errors.NewInvalidAddressError(userAddress)
	}

	liked, err := s.stats.HasLiked(ctx, tokenID, chain.NormalizeAddress(userAddress))
	if err != nil {
		return false, errors.NewDatabaseError("like lookup", err)
	}
	return liked, nil
}

// LikedTokens returns the token IDs a user likes.
func (s *EngagementService) LikedTokens(ctx context.Context, userAddress string) ([]string, error) {
	if !chain.ValidateAddress(userAddress) {
		return nil, errors.NewInvalidAddressError(userAddress)
	}

	tokens, err := s.stats.LikedTokens(ctx, chain.NormalizeAddress(userAddress))
	if err != nil {
		return nil, errors.NewDatabaseError("liked tokens lookup", err)
	}
	return tokens, nil
}

// GetStats returns the engagement counters for an artwork.
func (s *EngagementService) GetStats(ctx context.Context, tokenID string) (*models.ArtworkStats, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}

	if s.cache != nil {
		var cached models.ArtworkStats
		if hit, err := s.cache.Get(ctx, s.cache.GenerateStatsKey(tokenID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stats, err := s.stats.GetStats(ctx, tokenID)
	if err != nil {
		return nil, errors.NewDatabaseError("stats lookup", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.GenerateStatsKey(tokenID), stats); err != nil {
			s.logger.WithError(err).Warn("Failed to cache artwork stats")
		}
	}

	return stats, nil
}

// ViewTrend is an artwork's analytics over the raw view log: the all-time
// total and a daily breakdown over the trailing window.
type ViewTrend struct {
	TokenID string            `json:"tokenId"`
	Days    int               `json:"days"`
	Total   uint64            `json:"total"`
	Daily   map[string]uint64 `json:"daily"`
}

// ViewTrend aggregates the raw view log for an artwork. The window is
// clamped to the log's 90-day retention.
func (s *EngagementService) ViewTrend(ctx context.Context, tokenID string, days int) (*ViewTrend, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}
	if days <= 0 {
		days = 30
	}
	if days > 90 {
		days = 90
	}

	total, err := s.views.TotalViews(ctx, tokenID)
	if err != nil {
		return nil, errors.NewDatabaseError("view total lookup", err)
	}
	daily, err := s.views.ViewsByDay(ctx, tokenID, days)
	if err != nil {
		return nil, errors.NewDatabaseError("daily views lookup", err)
	}

	return &ViewTrend{TokenID: tokenID, Days: days, Total: total, Daily: daily}, nil
}

// TrendingArtworks returns the most viewed token IDs over a trailing window.
func (s *EngagementService) TrendingArtworks(ctx context.Context, days, limit int) ([]string, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	since := time.Now().AddDate(0, 0, -days)
	tokens, err := s.views.TopViewed(ctx, since, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("trending lookup", err)
	}
	return tokens, nil
}

// RecentLikes returns the latest likes on an artwork, newest first.
func (s *EngagementService) RecentLikes(ctx context.Context, tokenID string, limit int) ([]*models.ArtworkLike, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	likes, err := s.stats.ListLikes(ctx, tokenID, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("likes listing", err)
	}
	return likes, nil
}

// ListCategories returns all curation categories.
func (s *EngagementService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.categories.List(ctx)
}

// GetCategory returns one category by slug.
func (s *EngagementService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	return s.categories.GetBySlug(ctx, slug)
}

// CreateCategory creates a new curation category.
func (s *EngagementService) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.categories.Create(ctx, category)
}

// DeleteCategory removes a category and its assignments.
func (s *EngagementService) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.categories.Delete(ctx, slug); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateGallery(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate gallery cache")
		}
	}
	return nil
}

// TagArtwork assigns a category to an artwork.
func (s *EngagementService) TagArtwork(ctx context.Context, slug, tokenID string) error {
	if !ValidateTokenID(tokenID) {
		return errors.NewInvalidTokenIDError(tokenID)
	}
	if err := s.categories.AssignArtwork(ctx, slug, tokenID); err != nil {
		return err
	}
	s.invalidate(ctx, tokenID)
	return nil
}

// UntagArtwork removes a category from an artwork.
func (s *EngagementService) UntagArtwork(ctx context.Context, slug, tokenID string) error {
	if !ValidateTokenID(tokenID) {
		return errors.NewInvalidTokenIDError(tokenID)
	}
	if err := s.categories.UnassignArtwork(ctx, slug, tokenID); err != nil {
		return err
	}
	s.invalidate(ctx, tokenID)
	return nil
}

// ArtworkCategories returns the category slugs assigned to an artwork.
func (s *EngagementService) ArtworkCategories(ctx context.Context, tokenID string) ([]string, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}
	slugs, err := s.categories.CategoriesForArtwork(ctx, tokenID)
	if err != nil {
		return nil, errors.NewDatabaseError("artwork categories lookup", err)
	}
	return slugs, nil
}

// SetArtworkCategories replaces an artwork's category assignment set.
func (s *EngagementService) SetArtworkCategories(ctx context.Context, tokenID string, slugs []string) error {
	if !ValidateTokenID(tokenID) {
		return errors.NewInvalidTokenIDError(tokenID)
	}
	if err := s.categories.ReplaceArtworkCategories(ctx, tokenID, slugs); err != nil {
		return err
	}
	s.invalidate(ctx, tokenID)
	return nil
}

func (s *EngagementService) invalidate(ctx context.Context, tokenID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateArtwork(ctx, tokenID); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate artwork cache")
	}
}
