// Package service implements the gallery's business logic over the chain
// binding, the event-derived listing times and the engagement stores.
package service

import (
	"context"
	"math/big"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/errors"
	"github.com/luloxi/molotov/internal/feed"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/storage"
	"github.com/luloxi/molotov/internal/types"
)

var tokenIDPattern = regexp.MustCompile(`^[0-9]+$`)

// ValidateTokenID checks that a token ID is a positive decimal integer
func ValidateTokenID(tokenID string) bool {
	return tokenIDPattern.MatchString(tokenID) && tokenID != "0"
}

// ContractReader is the slice of the contract binding the gallery needs.
type ContractReader interface {
	GetArtwork(ctx context.Context, tokenID *big.Int) (*contract.ArtworkData, error)
	GetArtworksForSale(ctx context.Context) ([]contract.ArtworkData, error)
	GetArtistProfile(ctx context.Context, artist common.Address) (*contract.ArtistProfileData, error)
	GetArtistTokens(ctx context.Context, artist common.Address) ([]*big.Int, error)
	GetAllArtists(ctx context.Context) ([]common.Address, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
}

// ListingTimeSource resolves per-token listing times from event history.
type ListingTimeSource interface {
	Resolve(ctx context.Context) (feed.ListingTimes, error)
}

// GalleryStatsStore is the engagement data the gallery joins in.
type GalleryStatsStore interface {
	GetStatsBatch(ctx context.Context, tokenIDs []string) (map[string]*models.ArtworkStats, error)
}

// GalleryCategoryStore is the curation data the gallery joins in.
type GalleryCategoryStore interface {
	CategoriesForArtworks(ctx context.Context, tokenIDs []string) (map[string][]string, error)
	TokensForCategory(ctx context.Context, slug string) ([]string, error)
}

// GalleryService assembles the public gallery: on-chain artworks enriched
// with listing times, engagement counters and curation tags. Assembled pages
// are cached; the cache TTL bounds staleness, not correctness.
type GalleryService struct {
	reader     ContractReader
	listings   ListingTimeSource
	stats      GalleryStatsStore
	categories GalleryCategoryStore
	cache      *storage.CacheService
	logger     *logging.Logger
}

// NewGalleryService creates a new gallery service. cache may be nil, which
// disables page caching.
func NewGalleryService(
	reader ContractReader,
	listings ListingTimeSource,
	stats GalleryStatsStore,
	categories GalleryCategoryStore,
	cache *storage.CacheService,
) *GalleryService {
	return &GalleryService{
		reader:     reader,
		listings:   listings,
		stats:      stats,
		categories: categories,
		cache:      cache,
		logger:     logging.GetGlobalLogger().WithField("component", "gallery_service"),
	}
}

// GalleryFilter narrows a gallery page. Zero values mean "no constraint".
// Prices are decimal wei strings, bounds inclusive.
type GalleryFilter struct {
	Category    string
	Artist      string
	MediaType   string
	MinPriceWei string
	MaxPriceWei string
}

// GetGallery returns the artworks currently for sale, sorted and filtered.
func (s *GalleryService) GetGallery(ctx context.Context, sortBy types.GallerySort, filter GalleryFilter) ([]models.GalleryItem, error) {
	if sortBy == "" {
		sortBy = types.SortRecentlyListed
	}
	switch sortBy {
	case types.SortRecentlyListed, types.SortPriceAsc, types.SortPriceDesc, types.SortMostViewed, types.SortMostLiked:
	default:
		return nil, errors.NewInvalidParameterError("sort", "unknown sort order")
	}
	if filter.Artist != "" && !chain.ValidateAddress(filter.Artist) {
		return nil, errors.NewInvalidAddressError(filter.Artist)
	}
	minPrice, maxPrice, err := parsePriceBounds(filter.MinPriceWei, filter.MaxPriceWei)
	if err != nil {
		return nil, err
	}

	items, err := s.galleryPage(ctx, sortBy, filter.Category)
	if err != nil {
		return nil, err
	}

	return applySecondaryFilters(items, filter, minPrice, maxPrice), nil
}

// galleryPage assembles (or serves from cache) a sorted gallery page for one
// sort order and category. Secondary filters are applied on top of the page
// so they never fragment the cache.
func (s *GalleryService) galleryPage(ctx context.Context, sortBy types.GallerySort, category string) ([]models.GalleryItem, error) {
	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.GenerateGalleryKey(string(sortBy), category)
		var cached []models.GalleryItem
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	artworks, err := s.reader.GetArtworksForSale(ctx)
	if err != nil {
		return nil, errors.NewChainError("gallery fetch", err)
	}

	items, err := s.assemble(ctx, artworks)
	if err != nil {
		return nil, err
	}

	if category != "" {
		items, err = s.filterByCategory(ctx, items, category)
		if err != nil {
			return nil, err
		}
	}

	sortGallery(items, sortBy)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, items); err != nil {
			s.logger.WithError(err).Warn("Failed to cache gallery page")
		}
	}

	return items, nil
}

func parsePriceBounds(minWei, maxWei string) (*big.Int, *big.Int, error) {
	var minPrice, maxPrice *big.Int
	if minWei != "" {
		v, ok := new(big.Int).SetString(minWei, 10)
		if !ok || v.Sign() < 0 {
			return nil, nil, errors.NewInvalidParameterError("minPriceWei", "must be a non-negative decimal wei amount")
		}
		minPrice = v
	}
	if maxWei != "" {
		v, ok := new(big.Int).SetString(maxWei, 10)
		if !ok || v.Sign() < 0 {
			return nil, nil, errors.NewInvalidParameterError("maxPriceWei", "must be a non-negative decimal wei amount")
		}
		maxPrice = v
	}
	return minPrice, maxPrice, nil
}

func applySecondaryFilters(items []models.GalleryItem, filter GalleryFilter, minPrice, maxPrice *big.Int) []models.GalleryItem {
	if filter.Artist == "" && filter.MediaType == "" && minPrice == nil && maxPrice == nil {
		return items
	}

	artist := chain.NormalizeAddress(filter.Artist)
	mediaType := strings.ToLower(filter.MediaType)

	filtered := make([]models.GalleryItem, 0, len(items))
	for _, item := range items {
		if artist != "" && item.Artist != artist {
			continue
		}
		if mediaType != "" && strings.ToLower(item.MediaType) != mediaType {
			continue
		}
		if minPrice != nil || maxPrice != nil {
			price, ok := new(big.Int).SetString(item.PriceWei, 10)
			if !ok {
				continue
			}
			if minPrice != nil && price.Cmp(minPrice) < 0 {
				continue
			}
			if maxPrice != nil && price.Cmp(maxPrice) > 0 {
				continue
			}
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// GetArtwork returns one artwork enriched with engagement data.
func (s *GalleryService) GetArtwork(ctx context.Context, tokenID string) (*models.GalleryItem, error) {
	if !ValidateTokenID(tokenID) {
		return nil, errors.NewInvalidTokenIDError(tokenID)
	}

	if s.cache != nil {
		var cached models.GalleryItem
		if hit, err := s.cache.Get(ctx, s.cache.GenerateArtworkKey(tokenID), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	id, _ := new(big.Int).SetString(tokenID, 10)
	data, err := s.reader.GetArtwork(ctx, id)
	if err != nil {
		return nil, errors.NewChainError("artwork fetch", err)
	}
	if data.TokenId == nil || data.TokenId.Sign() == 0 {
		return nil, &types.ServiceError{
			Code:    "ARTWORK_NOT_FOUND",
			Message: "artwork not found: " + tokenID,
		}
	}

	items, err := s.assemble(ctx, []contract.ArtworkData{*data})
	if err != nil {
		return nil, err
	}
	item := &items[0]

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.GenerateArtworkKey(tokenID), item); err != nil {
			s.logger.WithError(err).Warn("Failed to cache artwork")
		}
	}

	return item, nil
}

// GetArtists returns every registered artist profile.
func (s *GalleryService) GetArtists(ctx context.Context) ([]models.ArtistProfile, error) {
	addresses, err := s.reader.GetAllArtists(ctx)
	if err != nil {
		return nil, errors.NewChainError("artist list fetch", err)
	}

	profiles := make([]models.ArtistProfile, 0, len(addresses))
	for _, addr := range addresses {
		profile, err := s.GetArtist(ctx, addr.Hex())
		if err != nil {
			s.logger.WithError(err).WithField("artist", addr.Hex()).Warn("Skipping unreadable artist profile")
			continue
		}
		profiles = append(profiles, *profile)
	}

	return profiles, nil
}

// GetArtist returns one artist profile by address.
func (s *GalleryService) GetArtist(ctx context.Context, address string) (*models.ArtistProfile, error) {
	if !chain.ValidateAddress(address) {
		return nil, errors.NewInvalidAddressError(address)
	}
	normalized := chain.NormalizeAddress(address)

	if s.cache != nil {
		var cached models.ArtistProfile
		if hit, err := s.cache.Get(ctx, s.cache.GenerateArtistKey(normalized), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	data, err := s.reader.GetArtistProfile(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, errors.NewChainError("artist profile fetch", err)
	}
	if data.RegisteredAt == nil || data.RegisteredAt.Sign() == 0 {
		return nil, &types.ServiceError{
			Code:    "ARTIST_NOT_FOUND",
			Message: "artist not found: " + normalized,
		}
	}

	profile := toProfile(data)
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cache.GenerateArtistKey(normalized), profile); err != nil {
			s.logger.WithError(err).Warn("Failed to cache artist profile")
		}
	}

	return profile, nil
}

// assemble joins on-chain artworks with listing times, counters and tags.
func (s *GalleryService) assemble(ctx context.Context, artworks []contract.ArtworkData) ([]models.GalleryItem, error) {
	tokenIDs := make([]string, 0, len(artworks))
	for _, a := range artworks {
		tokenIDs = append(tokenIDs, a.TokenId.String())
	}

	// Listing times degrade to creation times when the event scan fails;
	// the gallery itself must still render.
	listings, err := s.listings.Resolve(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Listing time scan failed, falling back to creation times")
		listings = feed.ListingTimes{}
	}

	statsByToken, err := s.stats.GetStatsBatch(ctx, tokenIDs)
	if err != nil {
		return nil, errors.NewDatabaseError("stats lookup", err)
	}

	tagsByToken, err := s.categories.CategoriesForArtworks(ctx, tokenIDs)
	if err != nil {
		return nil, errors.NewDatabaseError("category lookup", err)
	}

	items := make([]models.GalleryItem, 0, len(artworks))
	for _, a := range artworks {
		artwork := toArtwork(&a)
		item := models.GalleryItem{
			Artwork:    *artwork,
			ListedAt:   listings.TimeOf(artwork.TokenID, artwork.CreatedAt),
			Categories: tagsByToken[artwork.TokenID],
		}
		if stats, ok := statsByToken[artwork.TokenID]; ok {
			item.Views = stats.Views
			item.Likes = stats.Likes
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *GalleryService) filterByCategory(ctx context.Context, items []models.GalleryItem, category string) ([]models.GalleryItem, error) {
	tokens, err := s.categories.TokensForCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(tokens))
	for _, tokenID := range tokens {
		allowed[tokenID] = true
	}

	filtered := items[:0]
	for _, item := range items {
		if allowed[item.TokenID] {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func sortGallery(items []models.GalleryItem, sortBy types.GallerySort) {
	sort.SliceStable(items, func(i, j int) bool {
		switch sortBy {
		case types.SortPriceAsc:
			return comparePriceWei(items[i].PriceWei, items[j].PriceWei) < 0
		case types.SortPriceDesc:
			return comparePriceWei(items[i].PriceWei, items[j].PriceWei) > 0
		case types.SortMostViewed:
			return items[i].Views > items[j].Views
		case types.SortMostLiked:
			return items[i].Likes > items[j].Likes
		default:
			return items[i].ListedAt.After(items[j].ListedAt)
		}
	})
}

func comparePriceWei(a, b string) int {
	av, aok := new(big.Int).SetString(a, 10)
	bv, bok := new(big.Int).SetString(b, 10)
	if !aok || !bok {
		if aok {
			return 1
		}
		if bok {
			return -1
		}
		return 0
	}
	return av.Cmp(bv)
}

func toArtwork(data *contract.ArtworkData) *models.Artwork {
	artwork := &models.Artwork{
		TokenID:      data.TokenId.String(),
		Artist:       chain.NormalizeAddress(data.Artist.Hex()),
		Title:        data.Title,
		Description:  data.Description,
		MediaType:    data.MediaType,
		IPFSHash:     data.IpfsHash,
		MetadataHash: data.MetadataHash,
		PriceWei:     data.Price.String(),
		IsForSale:    data.IsForSale,
	}
	if data.CreatedAt != nil && data.CreatedAt.IsInt64() {
		artwork.CreatedAt = time.Unix(data.CreatedAt.Int64(), 0).UTC()
	}
	if data.EditionNumber != nil {
		artwork.EditionNumber = data.EditionNumber.Uint64()
	}
	if data.TotalEditions != nil {
		artwork.TotalEditions = data.TotalEditions.Uint64()
	}
	return artwork
}

func toProfile(data *contract.ArtistProfileData) *models.ArtistProfile {
	profile := &models.ArtistProfile{
		Wallet:           chain.NormalizeAddress(data.Wallet.Hex()),
		Name:             data.Name,
		Bio:              data.Bio,
		ProfileImageHash: data.ProfileImageHash,
		SocialLinks:      data.SocialLinks,
		TotalSalesWei:    "0",
		IsVerified:       data.IsVerified,
	}
	if data.TotalSales != nil {
		profile.TotalSalesWei = data.TotalSales.String()
	}
	if data.TotalArtworks != nil {
		profile.TotalArtworks = data.TotalArtworks.Uint64()
	}
	if data.RegisteredAt != nil && data.RegisteredAt.IsInt64() {
		profile.RegisteredAt = time.Unix(data.RegisteredAt.Int64(), 0).UTC()
	}
	return profile
}
