package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ArtworkData mirrors the contract's artwork tuple.
type ArtworkData struct {
	TokenId       *big.Int
	Artist        common.Address
	Title         string
	Description   string
	MediaType     string
	IpfsHash      string
	MetadataHash  string
	Price         *big.Int
	CreatedAt     *big.Int
	IsForSale     bool
	EditionNumber *big.Int
	TotalEditions *big.Int
}

// ArtistProfileData mirrors the contract's artist profile tuple.
type ArtistProfileData struct {
	Wallet           common.Address
	Name             string
	Bio              string
	ProfileImageHash string
	SocialLinks      string
	TotalSales       *big.Int
	TotalArtworks    *big.Int
	IsVerified       bool
	RegisteredAt     *big.Int
}

func (b *Binding) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if b.caller == nil {
		return nil, fmt.Errorf("binding has no caller configured")
	}

	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	res, err := b.caller.CallContract(ctx, b.address, data)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	out, err := b.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	return out, nil
}

// GetArtwork fetches the on-chain record for a token.
func (b *Binding) GetArtwork(ctx context.Context, tokenID *big.Int) (*ArtworkData, error) {
	out, err := b.call(ctx, "getArtwork", tokenID)
	if err != nil {
		return nil, err
	}

	artwork := *abi.ConvertType(out[0], new(ArtworkData)).(*ArtworkData)
	return &artwork, nil
}

// GetArtworksForSale fetches every artwork currently listed for sale.
func (b *Binding) GetArtworksForSale(ctx context.Context) ([]ArtworkData, error) {
	out, err := b.call(ctx, "getArtworksForSale")
	if err != nil {
		return nil, err
	}

	artworks := *abi.ConvertType(out[0], new([]ArtworkData)).(*[]ArtworkData)
	return artworks, nil
}

// GetArtistProfile fetches the profile registered for an artist address.
func (b *Binding) GetArtistProfile(ctx context.Context, artist common.Address) (*ArtistProfileData, error) {
	out, err := b.call(ctx, "getArtistProfile", artist)
	if err != nil {
		return nil, err
	}

	profile := *abi.ConvertType(out[0], new(ArtistProfileData)).(*ArtistProfileData)
	return &profile, nil
}

// GetArtistTokens fetches the token IDs minted by an artist.
func (b *Binding) GetArtistTokens(ctx context.Context, artist common.Address) ([]*big.Int, error) {
	out, err := b.call(ctx, "getArtistTokens", artist)
	if err != nil {
		return nil, err
	}

	tokens := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	return tokens, nil
}

// GetAllArtists fetches every registered artist address.
func (b *Binding) GetAllArtists(ctx context.Context) ([]common.Address, error) {
	out, err := b.call(ctx, "getAllArtists")
	if err != nil {
		return nil, err
	}

	artists := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	return artists, nil
}

// GetAllTokenIds fetches every minted token ID.
func (b *Binding) GetAllTokenIds(ctx context.Context) ([]*big.Int, error) {
	out, err := b.call(ctx, "getAllTokenIds")
	if err != nil {
		return nil, err
	}

	tokens := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	return tokens, nil
}

// TotalSupply fetches the total number of minted tokens.
func (b *Binding) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := b.call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}

	supply := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return supply, nil
}

// IsRegisteredArtist reports whether an address has registered a profile.
func (b *Binding) IsRegisteredArtist(ctx context.Context, artist common.Address) (bool, error) {
	out, err := b.call(ctx, "registeredArtists", artist)
	if err != nil {
		return false, err
	}

	registered := *abi.ConvertType(out[0], new(bool)).(*bool)
	return registered, nil
}

// OwnerOf fetches the current owner of a token.
func (b *Binding) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	out, err := b.call(ctx, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}

	owner := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return owner, nil
}
