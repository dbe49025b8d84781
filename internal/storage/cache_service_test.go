package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luloxi/molotov/internal/config"
	"github.com/luloxi/molotov/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cache, err := NewRedisCache(&config.RedisConfig{
		Host:           mr.Host(),
		Port:           mr.Port(),
		MaxConnections: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return NewCacheService(cache, ttl), mr
}

func TestCacheServiceRoundTrip(t *testing.T) {
	svc, _ := newTestCache(t, 20*time.Second)
	ctx := context.Background()

	stats := &models.ArtworkStats{TokenID: "42", Views: 7, Likes: 3}
	key := svc.GenerateStatsKey("42")

	require.NoError(t, svc.Set(ctx, key, stats))

	var got models.ArtworkStats
	hit, err := svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, *stats, got)
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc, _ := newTestCache(t, time.Second)

	var got models.ArtworkStats
	hit, err := svc.Get(context.Background(), "stats:999", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceTTLExpiry(t *testing.T) {
	svc, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	key := svc.GeneratePriceKey("eth", "usd")
	require.NoError(t, svc.Set(ctx, key, map[string]float64{"usd": 3000}))

	mr.FastForward(2 * time.Second)

	var got map[string]float64
	hit, err := svc.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry must expire after its TTL")
}

func TestCacheKeyGeneration(t *testing.T) {
	svc, _ := newTestCache(t, time.Second)

	assert.Equal(t, "gallery:recently_listed:all", svc.GenerateGalleryKey("recently_listed", ""))
	assert.Equal(t, "gallery:price_asc:glitch", svc.GenerateGalleryKey("price_asc", "Glitch"))
	assert.Equal(t, "artwork:42", svc.GenerateArtworkKey("42"))
	assert.Equal(t, "artist:0xabc", svc.GenerateArtistKey("0xABC"))
	assert.Equal(t, "price:eth:usd", svc.GeneratePriceKey("ETH", "USD"))
}

func TestInvalidateGallery(t *testing.T) {
	svc, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, svc.GenerateGalleryKey("recently_listed", ""), []string{"a"}))
	require.NoError(t, svc.Set(ctx, svc.GenerateGalleryKey("price_asc", "glitch"), []string{"b"}))
	require.NoError(t, svc.Set(ctx, svc.GenerateStatsKey("42"), &models.ArtworkStats{TokenID: "42"}))

	require.NoError(t, svc.InvalidateGallery(ctx))

	var page []string
	hit, err := svc.Get(ctx, svc.GenerateGalleryKey("recently_listed", ""), &page)
	require.NoError(t, err)
	assert.False(t, hit)

	var stats models.ArtworkStats
	hit, err = svc.Get(ctx, svc.GenerateStatsKey("42"), &stats)
	require.NoError(t, err)
	assert.True(t, hit, "stats entries must survive gallery invalidation")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "generative-art", Slugify("Generative Art"))
	assert.Equal(t, "glitch", Slugify("  Glitch!  "))
	assert.Equal(t, "a-b-c", Slugify("a/b/c"))
}
