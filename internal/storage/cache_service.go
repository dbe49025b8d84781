package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CacheService provides high-level caching operations for the gallery
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyGallery is for assembled gallery pages
	CacheKeyGallery CacheKeyType = "gallery"
	// CacheKeyArtwork is for single artwork records
	CacheKeyArtwork CacheKeyType = "artwork"
	// CacheKeyArtist is for artist profiles
	CacheKeyArtist CacheKeyType = "artist"
	// CacheKeyStats is for per-artwork engagement counters
	CacheKeyStats CacheKeyType = "stats"
	// CacheKeyPrice is for fiat price quotes
	CacheKeyPrice CacheKeyType = "price"
)

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	// Normalize all parameters to lowercase for consistency
	normalizedParams := make([]string, len(params))
	for i, param := range params {
		normalizedParams[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalizedParams...)
	return strings.Join(parts, ":")
}

// GenerateGalleryKey generates a cache key for an assembled gallery page
// Format: gallery:<sort>:<category>
func (c *CacheService) GenerateGalleryKey(sort, category string) string {
	if category == "" {
		category = "all"
	}
	return c.GenerateCacheKey(CacheKeyGallery, sort, category)
}

// GenerateArtworkKey generates a cache key for a single artwork
// Format: artwork:<token-id>
func (c *CacheService) GenerateArtworkKey(tokenID string) string {
	return c.GenerateCacheKey(CacheKeyArtwork, tokenID)
}

// GenerateArtistKey generates a cache key for an artist profile
// Format: artist:<address>
func (c *CacheService) GenerateArtistKey(address string) string {
	return c.GenerateCacheKey(CacheKeyArtist, address)
}

// GenerateStatsKey generates a cache key for artwork engagement counters
// Format: stats:<token-id>
func (c *CacheService) GenerateStatsKey(tokenID string) string {
	return c.GenerateCacheKey(CacheKeyStats, tokenID)
}

// GeneratePriceKey generates a cache key for a fiat quote
// Format: price:<symbol>:<currency>
func (c *CacheService) GeneratePriceKey(symbol, currency string) string {
	return c.GenerateCacheKey(CacheKeyPrice, symbol, currency)
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	// Serialize value to JSON
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, ttl)
}

// Get retrieves a value from cache and deserializes it
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		// Key not found is not an error, just a cache miss
		if err.Error() == "redis: nil" {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	// Deserialize JSON into destination
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// InvalidatePattern removes all keys matching a pattern
// Pattern examples: "gallery:*", "stats:42"
func (c *CacheService) InvalidatePattern(ctx context.Context, pattern string) error {
	keys, err := c.redis.Keys(ctx, pattern)
	if err != nil {
		return fmt.Errorf("failed to find keys matching pattern: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	return c.redis.Del(ctx, keys...)
}

// InvalidateGallery invalidates every assembled gallery page. Engagement
// writes call this so counters shown in the gallery stay fresh.
func (c *CacheService) InvalidateGallery(ctx context.Context) error {
	return c.InvalidatePattern(ctx, "gallery:*")
}

// InvalidateArtwork invalidates all cache entries for a token
func (c *CacheService) InvalidateArtwork(ctx context.Context, tokenID string) error {
	if err := c.Invalidate(ctx, c.GenerateArtworkKey(tokenID), c.GenerateStatsKey(tokenID)); err != nil {
		return fmt.Errorf("failed to invalidate artwork cache: %w", err)
	}
	return c.InvalidateGallery(ctx)
}

// Exists checks if a key exists in cache
func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	return c.redis.Exists(ctx, key)
}

// Refresh updates the TTL on an existing key
func (c *CacheService) Refresh(ctx context.Context, key string) error {
	return c.redis.Expire(ctx, key, c.ttl)
}

// GetTTL returns the configured TTL for this cache service
func (c *CacheService) GetTTL() time.Duration {
	return c.ttl
}

// SetTTL updates the default TTL for this cache service
func (c *CacheService) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}
