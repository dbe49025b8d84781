package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/types"
)

type fakeStatsStore struct {
	stats map[string]*models.ArtworkStats
	likes map[string]map[string]bool
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{
		stats: make(map[string]*models.ArtworkStats),
		likes: make(map[string]map[string]bool),
	}
}

func (f *fakeStatsStore) get(tokenID string) *models.ArtworkStats {
	if s, ok := f.stats[tokenID]; ok {
		return s
	}
	s := &models.ArtworkStats{TokenID: tokenID}
	f.stats[tokenID] = s
	return s
}

func (f *fakeStatsStore) GetStats(_ context.Context, tokenID string) (*models.ArtworkStats, error) {
	return f.get(tokenID), nil
}

func (f *fakeStatsStore) IncrementViews(_ context.Context, tokenID string) (int64, error) {
	s := f.get(tokenID)
	s.Views++
	return s.Views, nil
}

func (f *fakeStatsStore) ToggleLike(_ context.Context, tokenID, userID string) (bool, int64, error) {
	if f.likes[tokenID] == nil {
		f.likes[tokenID] = make(map[string]bool)
	}
	s := f.get(tokenID)
	if f.likes[tokenID][userID] {
		delete(f.likes[tokenID], userID)
		s.Likes--
		return false, s.Likes, nil
	}
	f.likes[tokenID][userID] = true
	s.Likes++
	return true, s.Likes, nil
}

func (f *fakeStatsStore) HasLiked(_ context.Context, tokenID, userID string) (bool, error) {
	return f.likes[tokenID][userID], nil
}

func (f *fakeStatsStore) LikedTokens(_ context.Context, userID string) ([]string, error) {
	var tokens []string
	for tokenID, users := range f.likes {
		if users[userID] {
			tokens = append(tokens, tokenID)
		}
	}
	return tokens, nil
}

func (f *fakeStatsStore) ListLikes(_ context.Context, tokenID string, limit int) ([]*models.ArtworkLike, error) {
	var likes []*models.ArtworkLike
	for userID := range f.likes[tokenID] {
		likes = append(likes, &models.ArtworkLike{TokenID: tokenID, UserID: userID})
		if len(likes) == limit {
			break
		}
	}
	return likes, nil
}

type fakeViewLog struct {
	inserted []*models.ViewEvent
}

func (f *fakeViewLog) Insert(_ context.Context, view *models.ViewEvent) error {
	f.inserted = append(f.inserted, view)
	return nil
}

func (f *fakeViewLog) RecentViewExists(_ context.Context, tokenID, ipHash string, window time.Duration) (bool, error) {
	cutoff := time.Now().Add(-window)
	for _, v := range f.inserted {
		if v.TokenID == tokenID && v.IPHash == ipHash && v.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeViewLog) TotalViews(_ context.Context, tokenID string) (uint64, error) {
	var total uint64
	for _, v := range f.inserted {
		if v.TokenID == tokenID {
			total++
		}
	}
	return total, nil
}

func (f *fakeViewLog) ViewsByDay(_ context.Context, tokenID string, days int) (map[string]uint64, error) {
	since := time.Now().AddDate(0, 0, -days)
	daily := make(map[string]uint64)
	for _, v := range f.inserted {
		if v.TokenID == tokenID && v.CreatedAt.After(since) {
			daily[v.CreatedAt.Format("2006-01-02")]++
		}
	}
	return daily, nil
}

func (f *fakeViewLog) TopViewed(_ context.Context, since time.Time, limit int) ([]string, error) {
	counts := make(map[string]int)
	var order []string
	for _, v := range f.inserted {
		if v.CreatedAt.After(since) {
			if counts[v.TokenID] == 0 {
				order = append(order, v.TokenID)
			}
			counts[v.TokenID]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

type fakeCategoryStore struct {
	known    map[string]*models.Category
	assigned map[string][]string
}

func newFakeCategoryStore(slugs ...string) *fakeCategoryStore {
	f := &fakeCategoryStore{
		known:    make(map[string]*models.Category),
		assigned: make(map[string][]string),
	}
	for _, slug := range slugs {
		f.known[slug] = &models.Category{ID: slug, Name: slug, Slug: slug}
	}
	return f
}

func (f *fakeCategoryStore) Create(_ context.Context, category *models.Category) error {
	f.known[category.Slug] = category
	return nil
}

func (f *fakeCategoryStore) GetBySlug(_ context.Context, slug string) (*models.Category, error) {
	if c, ok := f.known[slug]; ok {
		return c, nil
	}
	return nil, &types.ServiceError{Code: "CATEGORY_NOT_FOUND", Message: "category not found: " + slug}
}

func (f *fakeCategoryStore) List(_ context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.known {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, slug string) error {
	delete(f.known, slug)
	return nil
}

func (f *fakeCategoryStore) AssignArtwork(_ context.Context, slug, tokenID string) error {
	if _, ok := f.known[slug]; !ok {
		return &types.ServiceError{Code: "CATEGORY_NOT_FOUND", Message: "category not found: " + slug}
	}
	f.assigned[tokenID] = append(f.assigned[tokenID], slug)
	return nil
}

func (f *fakeCategoryStore) UnassignArtwork(_ context.Context, slug, tokenID string) error {
	var kept []string
	for _, s := range f.assigned[tokenID] {
		if s != slug {
			kept = append(kept, s)
		}
	}
	f.assigned[tokenID] = kept
	return nil
}

func (f *fakeCategoryStore) CategoriesForArtwork(_ context.Context, tokenID string) ([]string, error) {
	return f.assigned[tokenID], nil
}

func (f *fakeCategoryStore) ReplaceArtworkCategories(_ context.Context, tokenID string, slugs []string) error {
	for _, slug := range slugs {
		if _, ok := f.known[slug]; !ok {
			return &types.ServiceError{Code: "CATEGORY_NOT_FOUND", Message: "category not found: " + slug}
		}
	}
	f.assigned[tokenID] = append([]string(nil), slugs...)
	return nil
}

func newEngagement(stats *fakeStatsStore, views *fakeViewLog) *EngagementService {
	if stats == nil {
		stats = newFakeStatsStore()
	}
	if views == nil {
		views = &fakeViewLog{}
	}
	return NewEngagementService(stats, views, newFakeCategoryStore(), nil)
}

const likerAddr = "0xAAbbccddeeff00112233445566778899aAbBcCdD"

func TestHashViewer(t *testing.T) {
	sum := sha256.Sum256([]byte("203.0.113.7" + "42"))
	expected := hex.EncodeToString(sum[:])[:16]

	assert.Equal(t, expected, HashViewer("203.0.113.7", "42"))
	assert.Len(t, HashViewer("203.0.113.7", "42"), 16)

	// The token is part of the digest: the same viewer hashing differently
	// per artwork keeps views uncorrelated across tokens.
	assert.NotEqual(t, HashViewer("203.0.113.7", "42"), HashViewer("203.0.113.7", "43"))
}

func TestRecordViewCountsOncePerWindow(t *testing.T) {
	views := &fakeViewLog{}
	svc := newEngagement(nil, views)
	ctx := context.Background()

	first, err := svc.RecordView(ctx, "42", "203.0.113.7", "")
	require.NoError(t, err)
	assert.True(t, first.Counted)
	assert.Equal(t, int64(1), first.Views)

	second, err := svc.RecordView(ctx, "42", "203.0.113.7", "")
	require.NoError(t, err)
	assert.False(t, second.Counted, "repeat view inside the window must not count")
	assert.Equal(t, int64(1), second.Views)

	// A different viewer still counts.
	third, err := svc.RecordView(ctx, "42", "198.51.100.9", "")
	require.NoError(t, err)
	assert.True(t, third.Counted)
	assert.Equal(t, int64(2), third.Views)

	require.Len(t, views.inserted, 2)
	for _, v := range views.inserted {
		assert.Len(t, v.IPHash, 16)
		assert.NotContains(t, v.IPHash, ".", "raw IP must never be stored")
	}
}

func TestRecordViewCountsAgainAfterWindow(t *testing.T) {
	views := &fakeViewLog{}
	svc := newEngagement(nil, views)
	ctx := context.Background()

	first, err := svc.RecordView(ctx, "42", "203.0.113.7", "")
	require.NoError(t, err)
	assert.True(t, first.Counted)

	// Age the logged view past the dedupe window.
	views.inserted[0].CreatedAt = time.Now().Add(-2 * time.Hour)

	again, err := svc.RecordView(ctx, "42", "203.0.113.7", "")
	require.NoError(t, err)
	assert.True(t, again.Counted)
	assert.Equal(t, int64(2), again.Views)
}

func TestRecordViewRejectsBadTokenID(t *testing.T) {
	svc := newEngagement(nil, nil)
	_, err := svc.RecordView(context.Background(), "abc", "203.0.113.7", "")
	assert.Error(t, err)
}

func TestToggleLike(t *testing.T) {
	svc := newEngagement(nil, nil)
	ctx := context.Background()

	res, err := svc.ToggleLike(ctx, "42", likerAddr)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.Likes)

	res, err = svc.ToggleLike(ctx, "42", likerAddr)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(0), res.Likes)

	_, err = svc.ToggleLike(ctx, "42", "not-an-address")
	assert.Error(t, err)
}

func TestHasLikedAndLikedTokens(t *testing.T) {
	svc := newEngagement(nil, nil)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, "42", likerAddr)
	require.NoError(t, err)

	liked, err := svc.HasLiked(ctx, "42", likerAddr)
	require.NoError(t, err)
	assert.True(t, liked)

	tokens, err := svc.LikedTokens(ctx, likerAddr)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, tokens)
}

func TestSetArtworkCategories(t *testing.T) {
	categories := newFakeCategoryStore("glitch", "generative")
	svc := NewEngagementService(newFakeStatsStore(), &fakeViewLog{}, categories, nil)
	ctx := context.Background()

	require.NoError(t, svc.TagArtwork(ctx, "glitch", "42"))

	// PUT semantics: the new set fully replaces prior assignments.
	require.NoError(t, svc.SetArtworkCategories(ctx, "42", []string{"generative"}))

	slugs, err := svc.ArtworkCategories(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"generative"}, slugs)

	err = svc.SetArtworkCategories(ctx, "42", []string{"generative", "unknown"})
	assert.Error(t, err, "unknown slug must fail the whole replacement")

	_, err = svc.ArtworkCategories(ctx, "0")
	assert.Error(t, err)
}

func TestViewTrend(t *testing.T) {
	views := &fakeViewLog{}
	svc := newEngagement(nil, views)
	ctx := context.Background()

	_, err := svc.RecordView(ctx, "42", "203.0.113.7", "")
	require.NoError(t, err)
	_, err = svc.RecordView(ctx, "42", "198.51.100.9", "")
	require.NoError(t, err)

	trend, err := svc.ViewTrend(ctx, "42", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), trend.Total)
	assert.Equal(t, 30, trend.Days, "zero window takes the default")

	var daily uint64
	for _, n := range trend.Daily {
		daily += n
	}
	assert.Equal(t, uint64(2), daily)

	trend, err = svc.ViewTrend(ctx, "42", 500)
	require.NoError(t, err)
	assert.Equal(t, 90, trend.Days, "window clamps to the log retention")

	_, err = svc.ViewTrend(ctx, "abc", 7)
	assert.Error(t, err)
}

func TestTrendingArtworks(t *testing.T) {
	views := &fakeViewLog{}
	svc := newEngagement(nil, views)
	ctx := context.Background()

	for i, token := range []string{"1", "2", "2", "3", "3", "3"} {
		_, err := svc.RecordView(ctx, token, fmt.Sprintf("203.0.113.%d", i), "")
		require.NoError(t, err)
	}

	tokens, err := svc.TrendingArtworks(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, tokens)
}

func TestRecentLikes(t *testing.T) {
	svc := newEngagement(nil, nil)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, "42", likerAddr)
	require.NoError(t, err)

	likes, err := svc.RecentLikes(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, strings.ToLower(likerAddr), likes[0].UserID)

	_, err = svc.RecentLikes(ctx, "xyz", 5)
	assert.Error(t, err)
}

func TestGetStats(t *testing.T) {
	stats := newFakeStatsStore()
	stats.stats["42"] = &models.ArtworkStats{TokenID: "42", Views: 10, Likes: 4}

	svc := newEngagement(stats, nil)

	got, err := svc.GetStats(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Views)
	assert.Equal(t, int64(4), got.Likes)

	_, err = svc.GetStats(context.Background(), "0")
	assert.Error(t, err)
}
