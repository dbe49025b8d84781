package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// MintedEvent is a decoded ArtworkMinted log.
type MintedEvent struct {
	TokenID  *big.Int
	Artist   common.Address
	Title    string
	IPFSHash string
	Price    *big.Int
}

// PurchasedEvent is a decoded ArtworkPurchased log.
type PurchasedEvent struct {
	TokenID *big.Int
	Buyer   common.Address
	Seller  common.Address
	Price   *big.Int
}

// PriceUpdatedEvent is a decoded ArtworkPriceUpdated log.
type PriceUpdatedEvent struct {
	TokenID   *big.Int
	OldPrice  *big.Int
	NewPrice  *big.Int
	IsForSale bool
}

// RegisteredEvent is a decoded ArtistRegistered log.
type RegisteredEvent struct {
	Artist common.Address
	Name   string
}

// DecodeMinted decodes an ArtworkMinted log. The log must carry the event's
// topic0 and exactly two indexed topics; anything else is a decode error, not
// a silent skip.
func (b *Binding) DecodeMinted(log ethtypes.Log) (*MintedEvent, error) {
	if err := b.checkShape(log, "ArtworkMinted", b.MintedTopic(), 3); err != nil {
		return nil, err
	}

	values, err := b.abi.Unpack("ArtworkMinted", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ArtworkMinted data: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("ArtworkMinted: expected 3 data fields, got %d", len(values))
	}

	title, ok1 := values[0].(string)
	ipfsHash, ok2 := values[1].(string)
	price, ok3 := values[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("ArtworkMinted: unexpected data field types")
	}

	return &MintedEvent{
		TokenID:  new(big.Int).SetBytes(log.Topics[1].Bytes()),
		Artist:   common.BytesToAddress(log.Topics[2].Bytes()),
		Title:    title,
		IPFSHash: ipfsHash,
		Price:    price,
	}, nil
}

// DecodePurchased decodes an ArtworkPurchased log.
func (b *Binding) DecodePurchased(log ethtypes.Log) (*PurchasedEvent, error) {
	if err := b.checkShape(log, "ArtworkPurchased", b.PurchasedTopic(), 4); err != nil {
		return nil, err
	}

	values, err := b.abi.Unpack("ArtworkPurchased", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ArtworkPurchased data: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("ArtworkPurchased: expected 1 data field, got %d", len(values))
	}

	price, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("ArtworkPurchased: unexpected data field types")
	}

	return &PurchasedEvent{
		TokenID: new(big.Int).SetBytes(log.Topics[1].Bytes()),
		Buyer:   common.BytesToAddress(log.Topics[2].Bytes()),
		Seller:  common.BytesToAddress(log.Topics[3].Bytes()),
		Price:   price,
	}, nil
}

// DecodePriceUpdated decodes an ArtworkPriceUpdated log.
func (b *Binding) DecodePriceUpdated(log ethtypes.Log) (*PriceUpdatedEvent, error) {
	if err := b.checkShape(log, "ArtworkPriceUpdated", b.PriceUpdatedTopic(), 2); err != nil {
		return nil, err
	}

	values, err := b.abi.Unpack("ArtworkPriceUpdated", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ArtworkPriceUpdated data: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("ArtworkPriceUpdated: expected 3 data fields, got %d", len(values))
	}

	oldPrice, ok1 := values[0].(*big.Int)
	newPrice, ok2 := values[1].(*big.Int)
	isForSale, ok3 := values[2].(bool)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("ArtworkPriceUpdated: unexpected data field types")
	}

	return &PriceUpdatedEvent{
		TokenID:   new(big.Int).SetBytes(log.Topics[1].Bytes()),
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		IsForSale: isForSale,
	}, nil
}

// DecodeRegistered decodes an ArtistRegistered log.
func (b *Binding) DecodeRegistered(log ethtypes.Log) (*RegisteredEvent, error) {
	if err := b.checkShape(log, "ArtistRegistered", b.RegisteredTopic(), 2); err != nil {
		return nil, err
	}

	values, err := b.abi.Unpack("ArtistRegistered", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ArtistRegistered data: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("ArtistRegistered: expected 1 data field, got %d", len(values))
	}

	name, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("ArtistRegistered: unexpected data field types")
	}

	return &RegisteredEvent{
		Artist: common.BytesToAddress(log.Topics[1].Bytes()),
		Name:   name,
	}, nil
}

func (b *Binding) checkShape(log ethtypes.Log, name string, topic0 common.Hash, topics int) error {
	if len(log.Topics) != topics {
		return fmt.Errorf("%s: expected %d topics, got %d", name, topics, len(log.Topics))
	}
	if log.Topics[0] != topic0 {
		return fmt.Errorf("%s: topic0 mismatch: %s", name, log.Topics[0].Hex())
	}
	return nil
}
