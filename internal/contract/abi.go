// Package contract provides the typed binding to the Molotov marketplace
// contract: event decoding, view calls and calldata builders for the write
// surface. The ABI is fixed; the contract itself is an external collaborator.
package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const marketplaceABI = `[
	{"type":"function","name":"registerArtist","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_bio","type":"string"},{"name":"_profileImageHash","type":"string"},{"name":"_socialLinks","type":"string"}],"outputs":[]},
	{"type":"function","name":"updateArtistProfile","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_bio","type":"string"},{"name":"_profileImageHash","type":"string"},{"name":"_socialLinks","type":"string"}],"outputs":[]},
	{"type":"function","name":"mintArtwork","stateMutability":"nonpayable","inputs":[{"name":"_title","type":"string"},{"name":"_description","type":"string"},{"name":"_mediaType","type":"string"},{"name":"_ipfsHash","type":"string"},{"name":"_metadataHash","type":"string"},{"name":"_price","type":"uint256"},{"name":"_isForSale","type":"bool"},{"name":"_royaltyBps","type":"uint96"},{"name":"_editionNumber","type":"uint256"},{"name":"_totalEditions","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"purchaseArtwork","stateMutability":"payable","inputs":[{"name":"_tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"updateArtworkListing","stateMutability":"nonpayable","inputs":[{"name":"_tokenId","type":"uint256"},{"name":"_newPrice","type":"uint256"},{"name":"_isForSale","type":"bool"}],"outputs":[]},
	{"type":"function","name":"getArtwork","stateMutability":"view","inputs":[{"name":"_tokenId","type":"uint256"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"tokenId","type":"uint256"},{"name":"artist","type":"address"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"mediaType","type":"string"},{"name":"ipfsHash","type":"string"},{"name":"metadataHash","type":"string"},{"name":"price","type":"uint256"},{"name":"createdAt","type":"uint256"},{"name":"isForSale","type":"bool"},{"name":"editionNumber","type":"uint256"},{"name":"totalEditions","type":"uint256"}]}]},
	{"type":"function","name":"getArtworksForSale","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"tokenId","type":"uint256"},{"name":"artist","type":"address"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"mediaType","type":"string"},{"name":"ipfsHash","type":"string"},{"name":"metadataHash","type":"string"},{"name":"price","type":"uint256"},{"name":"createdAt","type":"uint256"},{"name":"isForSale","type":"bool"},{"name":"editionNumber","type":"uint256"},{"name":"totalEditions","type":"uint256"}]}]},
	{"type":"function","name":"getArtistProfile","stateMutability":"view","inputs":[{"name":"_artist","type":"address"}],"outputs":[{"name":"","type":"tuple","components":[{"name":"wallet","type":"address"},{"name":"name","type":"string"},{"name":"bio","type":"string"},{"name":"profileImageHash","type":"string"},{"name":"socialLinks","type":"string"},{"name":"totalSales","type":"uint256"},{"name":"totalArtworks","type":"uint256"},{"name":"isVerified","type":"bool"},{"name":"registeredAt","type":"uint256"}]}]},
	{"type":"function","name":"getArtistTokens","stateMutability":"view","inputs":[{"name":"_artist","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getAllArtists","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"getAllTokenIds","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"registeredArtists","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"ArtworkMinted","anonymous":false,"inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"artist","type":"address","indexed":true},{"name":"title","type":"string","indexed":false},{"name":"ipfsHash","type":"string","indexed":false},{"name":"price","type":"uint256","indexed":false}]},
	{"type":"event","name":"ArtworkPurchased","anonymous":false,"inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"seller","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]},
	{"type":"event","name":"ArtworkPriceUpdated","anonymous":false,"inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"oldPrice","type":"uint256","indexed":false},{"name":"newPrice","type":"uint256","indexed":false},{"name":"isForSale","type":"bool","indexed":false}]},
	{"type":"event","name":"ArtistRegistered","anonymous":false,"inputs":[{"name":"artist","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}]}
]`

// Binding exposes the marketplace contract at a fixed address.
type Binding struct {
	address common.Address
	abi     abi.ABI
	caller  Caller
}

// Caller executes read-only contract calls. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// NewBinding parses the marketplace ABI and binds it to an address with the
// given caller for view functions.
func NewBinding(address string, caller Caller) (*Binding, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address: %s", address)
	}

	parsed, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}

	return &Binding{
		address: common.HexToAddress(address),
		abi:     parsed,
		caller:  caller,
	}, nil
}

// Address returns the bound contract address.
func (b *Binding) Address() common.Address {
	return b.address
}

// ABI returns the parsed contract ABI.
func (b *Binding) ABI() abi.ABI {
	return b.abi
}

// MintedTopic returns the topic0 hash of ArtworkMinted.
func (b *Binding) MintedTopic() common.Hash {
	return b.abi.Events["ArtworkMinted"].ID
}

// PurchasedTopic returns the topic0 hash of ArtworkPurchased.
func (b *Binding) PurchasedTopic() common.Hash {
	return b.abi.Events["ArtworkPurchased"].ID
}

// PriceUpdatedTopic returns the topic0 hash of ArtworkPriceUpdated.
func (b *Binding) PriceUpdatedTopic() common.Hash {
	return b.abi.Events["ArtworkPriceUpdated"].ID
}

// RegisteredTopic returns the topic0 hash of ArtistRegistered.
func (b *Binding) RegisteredTopic() common.Hash {
	return b.abi.Events["ArtistRegistered"].ID
}
