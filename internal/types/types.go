// Package types provides common type definitions for the Molotov gallery service.
package types

import (
	"fmt"
	"time"
)

// EventKind identifies the kind of on-chain marketplace event.
type EventKind string

const (
	// KindMint represents an ArtworkMinted event
	KindMint EventKind = "mint"
	// KindPurchase represents an ArtworkPurchased event
	KindPurchase EventKind = "purchase"
	// KindRegister represents an ArtistRegistered event
	KindRegister EventKind = "register"
	// KindList is reserved; the feed never produces it
	KindList EventKind = "list"
	// KindDelist is reserved; the feed never produces it
	KindDelist EventKind = "delist"
)

// ActivityEvent is one observed on-chain occurrence in the activity feed.
// ID is derived from (transaction hash, log index) and is unique per event.
// Name fields may be filled in after insertion, once a registration record
// for the address is known.
type ActivityEvent struct {
	ID               string    `json:"id"`
	Kind             EventKind `json:"kind"`
	TokenID          string    `json:"tokenId,omitempty"`
	Actor            string    `json:"actor"`
	Counterparty     string    `json:"counterparty,omitempty"`
	AmountWei        string    `json:"amountWei,omitempty"`
	Title            string    `json:"title,omitempty"`
	ActorName        string    `json:"actorName,omitempty"`
	CounterpartyName string    `json:"counterpartyName,omitempty"`
	ObservedAt       time.Time `json:"observedAt"`
	BlockNumber      uint64    `json:"blockNumber"`
	LogIndex         uint      `json:"logIndex"`
	TxHash           string    `json:"txHash"`
}

// EventID derives the stable feed identity for a log position.
func EventID(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", txHash, logIndex)
}

// ListingTimeRecord is the per-token derived "most recently listed" state.
// BlockNumber is the source of truth for recency; Timestamp is estimated.
type ListingTimeRecord struct {
	TokenID     string    `json:"tokenId"`
	Timestamp   time.Time `json:"timestamp"`
	BlockNumber uint64    `json:"blockNumber"`
}

// GallerySort enumerates the supported gallery sort orders.
type GallerySort string

const (
	// SortRecentlyListed orders by listing time, newest first
	SortRecentlyListed GallerySort = "recently_listed"
	// SortPriceAsc orders by price, cheapest first
	SortPriceAsc GallerySort = "price_asc"
	// SortPriceDesc orders by price, most expensive first
	SortPriceDesc GallerySort = "price_desc"
	// SortMostViewed orders by view count descending
	SortMostViewed GallerySort = "most_viewed"
	// SortMostLiked orders by like count descending
	SortMostLiked GallerySort = "most_liked"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
