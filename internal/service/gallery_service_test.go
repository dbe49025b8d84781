package service

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/feed"
	"github.com/luloxi/molotov/internal/models"
	"github.com/luloxi/molotov/internal/types"
)

type fakeContractReader struct {
	artworks map[string]*contract.ArtworkData
	forSale  []contract.ArtworkData
	profiles map[string]*contract.ArtistProfileData
	err      error
}

func (f *fakeContractReader) GetArtwork(_ context.Context, tokenID *big.Int) (*contract.ArtworkData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.artworks[tokenID.String()]; ok {
		return a, nil
	}
	return &contract.ArtworkData{TokenId: big.NewInt(0)}, nil
}

func (f *fakeContractReader) GetArtworksForSale(_ context.Context) ([]contract.ArtworkData, error) {
	return f.forSale, f.err
}

func (f *fakeContractReader) GetArtistProfile(_ context.Context, artist common.Address) (*contract.ArtistProfileData, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[artist.Hex()]; ok {
		return p, nil
	}
	return &contract.ArtistProfileData{RegisteredAt: big.NewInt(0)}, nil
}

func (f *fakeContractReader) GetArtistTokens(_ context.Context, _ common.Address) ([]*big.Int, error) {
	return nil, f.err
}

func (f *fakeContractReader) GetAllArtists(_ context.Context) ([]common.Address, error) {
	var out []common.Address
	for addr := range f.profiles {
		out = append(out, common.HexToAddress(addr))
	}
	return out, f.err
}

func (f *fakeContractReader) TotalSupply(_ context.Context) (*big.Int, error) {
	return big.NewInt(int64(len(f.artworks))), f.err
}

type fakeListings struct {
	times feed.ListingTimes
	err   error
}

func (f *fakeListings) Resolve(_ context.Context) (feed.ListingTimes, error) {
	return f.times, f.err
}

type fakeGalleryStats struct {
	stats map[string]*models.ArtworkStats
}

func (f *fakeGalleryStats) GetStatsBatch(_ context.Context, tokenIDs []string) (map[string]*models.ArtworkStats, error) {
	out := make(map[string]*models.ArtworkStats)
	for _, id := range tokenIDs {
		if s, ok := f.stats[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeGalleryCategories struct {
	tags   map[string][]string
	tokens map[string][]string
}

func (f *fakeGalleryCategories) CategoriesForArtworks(_ context.Context, tokenIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range tokenIDs {
		if t, ok := f.tags[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeGalleryCategories) TokensForCategory(_ context.Context, slug string) ([]string, error) {
	return f.tokens[slug], nil
}

func artworkData(token int64, price string, createdAt int64) contract.ArtworkData {
	p, _ := new(big.Int).SetString(price, 10)
	return contract.ArtworkData{
		TokenId:       big.NewInt(token),
		Artist:        common.HexToAddress("0xaaaa00000000000000000000000000000000aaaa"),
		Title:         fmt.Sprintf("Artwork %d", token),
		MediaType:     "image",
		IpfsHash:      "QmHash",
		Price:         p,
		CreatedAt:     big.NewInt(createdAt),
		IsForSale:     true,
		EditionNumber: big.NewInt(1),
		TotalEditions: big.NewInt(1),
	}
}

func newGallery(reader *fakeContractReader, listings *fakeListings, stats *fakeGalleryStats, cats *fakeGalleryCategories) *GalleryService {
	if listings == nil {
		listings = &fakeListings{times: feed.ListingTimes{}}
	}
	if stats == nil {
		stats = &fakeGalleryStats{stats: map[string]*models.ArtworkStats{}}
	}
	if cats == nil {
		cats = &fakeGalleryCategories{}
	}
	return NewGalleryService(reader, listings, stats, cats, nil)
}

func TestValidateTokenID(t *testing.T) {
	assert.True(t, ValidateTokenID("1"))
	assert.True(t, ValidateTokenID("42"))
	assert.False(t, ValidateTokenID("0"))
	assert.False(t, ValidateTokenID("-1"))
	assert.False(t, ValidateTokenID("abc"))
	assert.False(t, ValidateTokenID(""))
}

func TestGetGallerySortsByListingTime(t *testing.T) {
	reader := &fakeContractReader{forSale: []contract.ArtworkData{
		artworkData(1, "100", 1000),
		artworkData(2, "200", 2000),
		artworkData(3, "300", 3000),
	}}

	// Token 1 was re-listed most recently even though it was minted first.
	listings := &fakeListings{times: feed.ListingTimes{
		"1": {TokenID: "1", Timestamp: time.Unix(9000, 0), BlockNumber: 90},
		"2": {TokenID: "2", Timestamp: time.Unix(2000, 0), BlockNumber: 20},
	}}

	svc := newGallery(reader, listings, nil, nil)
	items, err := svc.GetGallery(context.Background(), types.SortRecentlyListed, GalleryFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "1", items[0].TokenID)
	// Token 3 has no listing record and falls back to its creation time.
	assert.Equal(t, "3", items[1].TokenID)
	assert.Equal(t, "2", items[2].TokenID)
}

func TestGetGallerySortsByPrice(t *testing.T) {
	// The middle price exceeds uint64 to make sure ordering is big.Int based.
	reader := &fakeContractReader{forSale: []contract.ArtworkData{
		artworkData(1, "500", 1),
		artworkData(2, "99999999999999999999999999", 1),
		artworkData(3, "100", 1),
	}}

	svc := newGallery(reader, nil, nil, nil)

	asc, err := svc.GetGallery(context.Background(), types.SortPriceAsc, GalleryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, []string{asc[0].TokenID, asc[1].TokenID, asc[2].TokenID})

	desc, err := svc.GetGallery(context.Background(), types.SortPriceDesc, GalleryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2", desc[0].TokenID)
}

func TestGetGallerySortsByEngagement(t *testing.T) {
	reader := &fakeContractReader{forSale: []contract.ArtworkData{
		artworkData(1, "100", 1),
		artworkData(2, "100", 1),
	}}
	stats := &fakeGalleryStats{stats: map[string]*models.ArtworkStats{
		"1": {TokenID: "1", Views: 5, Likes: 50},
		"2": {TokenID: "2", Views: 100, Likes: 2},
	}}

	svc := newGallery(reader, nil, stats, nil)

	viewed, err := svc.GetGallery(context.Background(), types.SortMostViewed, GalleryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2", viewed[0].TokenID)

	liked, err := svc.GetGallery(context.Background(), types.SortMostLiked, GalleryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1", liked[0].TokenID)
}

func TestGetGalleryFiltersByCategory(t *testing.T) {
	reader := &fakeContractReader{forSale: []contract.ArtworkData{
		artworkData(1, "100", 1),
		artworkData(2, "100", 1),
	}}
	cats := &fakeGalleryCategories{
		tags:   map[string][]string{"1": {"glitch"}},
		tokens: map[string][]string{"glitch": {"1"}},
	}

	svc := newGallery(reader, nil, nil, cats)
	items, err := svc.GetGallery(context.Background(), types.SortRecentlyListed, GalleryFilter{Category: "glitch"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].TokenID)
	assert.Equal(t, []string{"glitch"}, items[0].Categories)
}

func TestGetGallerySecondaryFilters(t *testing.T) {
	a := artworkData(1, "100", 1)
	b := artworkData(2, "5000", 1)
	b.Artist = common.HexToAddress("0xbbbb00000000000000000000000000000000bbbb")
	b.MediaType = "video"
	c := artworkData(3, "99999999999999999999999999", 1)

	reader := &fakeContractReader{forSale: []contract.ArtworkData{a, b, c}}
	svc := newGallery(reader, nil, nil, nil)
	ctx := context.Background()

	byArtist, err := svc.GetGallery(ctx, types.SortRecentlyListed, GalleryFilter{
		Artist: "0xBBBB00000000000000000000000000000000BBBB",
	})
	require.NoError(t, err)
	require.Len(t, byArtist, 1)
	assert.Equal(t, "2", byArtist[0].TokenID)

	byMedia, err := svc.GetGallery(ctx, types.SortRecentlyListed, GalleryFilter{MediaType: "image"})
	require.NoError(t, err)
	assert.Len(t, byMedia, 2)

	// Bounds are inclusive and big.Int based.
	byPrice, err := svc.GetGallery(ctx, types.SortPriceAsc, GalleryFilter{
		MinPriceWei: "100",
		MaxPriceWei: "5000",
	})
	require.NoError(t, err)
	require.Len(t, byPrice, 2)
	assert.Equal(t, "1", byPrice[0].TokenID)

	_, err = svc.GetGallery(ctx, types.SortRecentlyListed, GalleryFilter{MinPriceWei: "ten"})
	assert.Error(t, err)

	_, err = svc.GetGallery(ctx, types.SortRecentlyListed, GalleryFilter{Artist: "0x12"})
	assert.Error(t, err)
}

func TestGetGalleryRejectsUnknownSort(t *testing.T) {
	svc := newGallery(&fakeContractReader{}, nil, nil, nil)
	_, err := svc.GetGallery(context.Background(), "alphabetical", GalleryFilter{})
	assert.Error(t, err)
}

func TestGetGallerySurvivesListingScanFailure(t *testing.T) {
	reader := &fakeContractReader{forSale: []contract.ArtworkData{artworkData(1, "100", 5000)}}
	listings := &fakeListings{err: fmt.Errorf("rpc timeout")}

	svc := newGallery(reader, listings, nil, nil)
	items, err := svc.GetGallery(context.Background(), types.SortRecentlyListed, GalleryFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, time.Unix(5000, 0).UTC(), items[0].ListedAt)
}

func TestGetArtwork(t *testing.T) {
	data := artworkData(42, "1000", 1700000000)
	reader := &fakeContractReader{artworks: map[string]*contract.ArtworkData{"42": &data}}

	svc := newGallery(reader, nil, nil, nil)

	item, err := svc.GetArtwork(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Artwork 42", item.Title)
	assert.Equal(t, "0xaaaa00000000000000000000000000000000aaaa", item.Artist)

	_, err = svc.GetArtwork(context.Background(), "999")
	require.Error(t, err)

	_, err = svc.GetArtwork(context.Background(), "not-a-token")
	require.Error(t, err)
}

func TestGetArtist(t *testing.T) {
	addr := common.HexToAddress("0xaaaa00000000000000000000000000000000aaaa")
	reader := &fakeContractReader{profiles: map[string]*contract.ArtistProfileData{
		addr.Hex(): {
			Wallet:        addr,
			Name:          "Frida",
			TotalSales:    big.NewInt(12345),
			TotalArtworks: big.NewInt(3),
			RegisteredAt:  big.NewInt(1700000000),
		},
	}}

	svc := newGallery(reader, nil, nil, nil)

	profile, err := svc.GetArtist(context.Background(), addr.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Frida", profile.Name)
	assert.Equal(t, "12345", profile.TotalSalesWei)
	assert.Equal(t, uint64(3), profile.TotalArtworks)

	_, err = svc.GetArtist(context.Background(), "0x1234")
	assert.Error(t, err, "malformed address must be rejected")

	_, err = svc.GetArtist(context.Background(), "0xbbbb00000000000000000000000000000000bbbb")
	assert.Error(t, err, "unregistered address must not resolve to a profile")
}
