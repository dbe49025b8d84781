package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/luloxi/molotov/internal/service"
	"github.com/luloxi/molotov/internal/types"
)

// handleGetGallery returns artworks for sale, optionally sorted and filtered.
// Query parameters: sort (recently_listed, price_asc, price_desc, most_viewed,
// most_liked), category (slug), artist (address), mediaType, and inclusive
// minPriceWei/maxPriceWei bounds.
func (s *Server) handleGetGallery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sortBy := types.GallerySort(query.Get("sort"))
	if sortBy == "" {
		sortBy = types.SortRecentlyListed
	}
	filter := service.GalleryFilter{
		Category:    query.Get("category"),
		Artist:      query.Get("artist"),
		MediaType:   query.Get("mediaType"),
		MinPriceWei: query.Get("minPriceWei"),
		MaxPriceWei: query.Get("maxPriceWei"),
	}

	items, err := s.gallery.GetGallery(r.Context(), sortBy, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"artworks": items,
		"count":    len(items),
	})
}

// handleGetArtwork returns a single artwork with its engagement stats.
func (s *Server) handleGetArtwork(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	item, err := s.gallery.GetArtwork(r.Context(), tokenID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// handleListArtists returns all registered artist profiles.
func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := s.gallery.GetArtists(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"artists": artists,
		"count":   len(artists),
	})
}

// handleGetArtist returns one artist profile by wallet address.
func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	artist, err := s.gallery.GetArtist(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, artist)
}
