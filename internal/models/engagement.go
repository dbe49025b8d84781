package models

import "time"

// ArtworkStats holds the per-token engagement counters.
type ArtworkStats struct {
	TokenID string `json:"tokenId"`
	Views   int64  `json:"views"`
	Likes   int64  `json:"likes"`
}

// ArtworkLike is one user's like on an artwork.
type ArtworkLike struct {
	ID        string    `json:"id"`
	TokenID   string    `json:"tokenId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ViewEvent is one recorded artwork view. IPHash is a truncated
// sha256(ip + tokenId) digest; the raw address is never stored.
type ViewEvent struct {
	ID        string    `json:"id"`
	TokenID   string    `json:"tokenId"`
	UserID    string    `json:"userId,omitempty"`
	IPHash    string    `json:"ipHash"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category is an off-chain curation tag for artworks.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Artworks    int64     `json:"artworks"`
	CreatedAt   time.Time `json:"createdAt"`
}
