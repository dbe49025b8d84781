package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxPayload is an unsigned transaction prepared for a wallet to sign. Value
// is a decimal wei string, zero for non-payable calls.
type TxPayload struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

func (b *Binding) pack(method string, args ...interface{}) (string, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s calldata: %w", method, err)
	}
	return hexutil.Encode(data), nil
}

// RegisterArtistTx builds the registerArtist transaction payload.
func (b *Binding) RegisterArtistTx(name, bio, profileImageHash, socialLinks string) (*TxPayload, error) {
	if name == "" {
		return nil, fmt.Errorf("artist name cannot be empty")
	}

	data, err := b.pack("registerArtist", name, bio, profileImageHash, socialLinks)
	if err != nil {
		return nil, err
	}

	return &TxPayload{To: b.address.Hex(), Data: data, Value: "0"}, nil
}

// UpdateArtistProfileTx builds the updateArtistProfile transaction payload.
func (b *Binding) UpdateArtistProfileTx(name, bio, profileImageHash, socialLinks string) (*TxPayload, error) {
	if name == "" {
		return nil, fmt.Errorf("artist name cannot be empty")
	}

	data, err := b.pack("updateArtistProfile", name, bio, profileImageHash, socialLinks)
	if err != nil {
		return nil, err
	}

	return &TxPayload{To: b.address.Hex(), Data: data, Value: "0"}, nil
}

// MintArtworkParams are the inputs to a mintArtwork transaction.
type MintArtworkParams struct {
	Title         string
	Description   string
	MediaType     string
	IPFSHash      string
	MetadataHash  string
	PriceWei      *big.Int
	IsForSale     bool
	RoyaltyBps    *big.Int
	EditionNumber *big.Int
	TotalEditions *big.Int
}

// MintArtworkTx builds the mintArtwork transaction payload.
func (b *Binding) MintArtworkTx(params MintArtworkParams) (*TxPayload, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("artwork title cannot be empty")
	}
	if params.IPFSHash == "" {
		return nil, fmt.Errorf("artwork media hash cannot be empty")
	}
	if params.PriceWei == nil || params.PriceWei.Sign() < 0 {
		return nil, fmt.Errorf("artwork price must be a non-negative amount")
	}
	if params.RoyaltyBps == nil {
		params.RoyaltyBps = big.NewInt(0)
	}
	if params.EditionNumber == nil {
		params.EditionNumber = big.NewInt(1)
	}
	if params.TotalEditions == nil {
		params.TotalEditions = big.NewInt(1)
	}

	data, err := b.pack("mintArtwork",
		params.Title,
		params.Description,
		params.MediaType,
		params.IPFSHash,
		params.MetadataHash,
		params.PriceWei,
		params.IsForSale,
		params.RoyaltyBps,
		params.EditionNumber,
		params.TotalEditions,
	)
	if err != nil {
		return nil, err
	}

	return &TxPayload{To: b.address.Hex(), Data: data, Value: "0"}, nil
}

// PurchaseArtworkTx builds the payable purchaseArtwork transaction payload.
// The payload's value is the listed price in wei.
func (b *Binding) PurchaseArtworkTx(tokenID, priceWei *big.Int) (*TxPayload, error) {
	if tokenID == nil || tokenID.Sign() <= 0 {
		return nil, fmt.Errorf("token ID must be positive")
	}
	if priceWei == nil || priceWei.Sign() < 0 {
		return nil, fmt.Errorf("purchase price must be a non-negative amount")
	}

	data, err := b.pack("purchaseArtwork", tokenID)
	if err != nil {
		return nil, err
	}

	return &TxPayload{To: b.address.Hex(), Data: data, Value: priceWei.String()}, nil
}

// UpdateArtworkListingTx builds the updateArtworkListing transaction payload.
func (b *Binding) UpdateArtworkListingTx(tokenID, newPriceWei *big.Int, isForSale bool) (*TxPayload, error) {
	if tokenID == nil || tokenID.Sign() <= 0 {
		return nil, fmt.Errorf("token ID must be positive")
	}
	if newPriceWei == nil || newPriceWei.Sign() < 0 {
		return nil, fmt.Errorf("listing price must be a non-negative amount")
	}

	data, err := b.pack("updateArtworkListing", tokenID, newPriceWei, isForSale)
	if err != nil {
		return nil, err
	}

	return &TxPayload{To: b.address.Hex(), Data: data, Value: "0"}, nil
}
