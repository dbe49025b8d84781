// Package models defines the persistent and on-chain data models served by the API.
package models

import "time"

// Artwork mirrors the artwork record stored by the marketplace contract.
// PriceWei is kept as a decimal string since uint256 values can exceed uint64.
type Artwork struct {
	TokenID       string    `json:"tokenId"`
	Artist        string    `json:"artist"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MediaType     string    `json:"mediaType"`
	IPFSHash      string    `json:"ipfsHash"`
	MetadataHash  string    `json:"metadataHash"`
	PriceWei      string    `json:"priceWei"`
	CreatedAt     time.Time `json:"createdAt"`
	IsForSale     bool      `json:"isForSale"`
	EditionNumber uint64    `json:"editionNumber"`
	TotalEditions uint64    `json:"totalEditions"`
}

// ArtistProfile mirrors the artist record stored by the marketplace contract.
type ArtistProfile struct {
	Wallet           string    `json:"wallet"`
	Name             string    `json:"name"`
	Bio              string    `json:"bio"`
	ProfileImageHash string    `json:"profileImageHash"`
	SocialLinks      string    `json:"socialLinks"`
	TotalSalesWei    string    `json:"totalSalesWei"`
	TotalArtworks    uint64    `json:"totalArtworks"`
	IsVerified       bool      `json:"isVerified"`
	RegisteredAt     time.Time `json:"registeredAt"`
}

// GalleryItem is an artwork enriched with off-chain engagement data and the
// derived listing time used for recency ordering.
type GalleryItem struct {
	Artwork
	ListedAt   time.Time `json:"listedAt"`
	Views      int64     `json:"views"`
	Likes      int64     `json:"likes"`
	Categories []string  `json:"categories,omitempty"`
}
