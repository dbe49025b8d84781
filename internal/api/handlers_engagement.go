package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/luloxi/molotov/internal/models"
)

// walletAddress extracts the caller's wallet address from the request header.
// The API never signs transactions, so the header is trusted as an identity
// hint for engagement features only.
func walletAddress(r *http.Request) string {
	return r.Header.Get("X-Wallet-Address")
}

// handleGetStats returns view and like counts for an artwork.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	stats, err := s.engagement.GetStats(r.Context(), tokenID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleRecordView records a page view, deduplicated per viewer per hour.
func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	result, err := s.engagement.RecordView(r.Context(), tokenID, clientIP(r), walletAddress(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// queryInt parses an optional integer query parameter, returning zero when
// absent or unparseable; the service applies its own defaults and clamps.
func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

// handleViewTrend returns view analytics for an artwork: the all-time total
// and a daily breakdown over a trailing window.
func (s *Server) handleViewTrend(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	trend, err := s.engagement.ViewTrend(r.Context(), tokenID, queryInt(r, "days"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, trend)
}

// handleTrending returns the most viewed artworks over a trailing window.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.engagement.TrendingArtworks(r.Context(), queryInt(r, "days"), queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if tokens == nil {
		tokens = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokenIds": tokens,
		"count":    len(tokens),
	})
}

// handleRecentLikes returns the latest likes on an artwork, newest first.
func (s *Server) handleRecentLikes(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	likes, err := s.engagement.RecentLikes(r.Context(), tokenID, queryInt(r, "limit"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if likes == nil {
		likes = []*models.ArtworkLike{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokenId": tokenID,
		"likes":   likes,
		"count":   len(likes),
	})
}

// handleToggleLike toggles the caller's like on an artwork.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	wallet := walletAddress(r)
	if wallet == "" {
		respondError(w, http.StatusBadRequest, "MISSING_WALLET", "X-Wallet-Address header is required to like artworks", nil)
		return
	}

	result, err := s.engagement.ToggleLike(r.Context(), tokenID, wallet)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleGetLiked reports whether the caller has liked an artwork.
func (s *Server) handleGetLiked(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	wallet := walletAddress(r)
	if wallet == "" {
		respondError(w, http.StatusBadRequest, "MISSING_WALLET", "X-Wallet-Address header is required", nil)
		return
	}

	liked, err := s.engagement.HasLiked(r.Context(), tokenID, wallet)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// handleListCategories returns all curation categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.engagement.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// createCategoryRequest is the payload for creating a curation category.
type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// handleCreateCategory creates a new curation category.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Category name is required", nil)
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := s.engagement.CreateCategory(r.Context(), category); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, category)
}

// handleGetCategory returns one category by slug.
func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	category, err := s.engagement.GetCategory(r.Context(), slug)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, category)
}

// handleDeleteCategory removes a category and its artwork assignments.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	if err := s.engagement.DeleteCategory(r.Context(), slug); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": slug})
}

// handleArtworkCategories returns the category slugs assigned to an artwork.
func (s *Server) handleArtworkCategories(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	slugs, err := s.engagement.ArtworkCategories(r.Context(), tokenID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if slugs == nil {
		slugs = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokenId":    tokenID,
		"categories": slugs,
	})
}

type tagRequest struct {
	Category string `json:"category"`
}

// handleTagArtwork adds one category tag to an artwork.
func (s *Server) handleTagArtwork(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	var req tagRequest
	if err := parseJSONBody(r, &req); err != nil || req.Category == "" {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must name a category", nil)
		return
	}

	if err := s.engagement.TagArtwork(r.Context(), req.Category, tokenID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"category": req.Category,
		"tokenId":  tokenID,
	})
}

type replaceCategoriesRequest struct {
	Categories []string `json:"categories"`
}

// handleReplaceArtworkCategories replaces an artwork's full category set.
func (s *Server) handleReplaceArtworkCategories(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	var req replaceCategoriesRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	if err := s.engagement.SetArtworkCategories(r.Context(), tokenID, req.Categories); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokenId":    tokenID,
		"categories": req.Categories,
	})
}

// handleUntagArtwork removes one category tag from an artwork. The category
// slug travels as a query parameter.
func (s *Server) handleUntagArtwork(w http.ResponseWriter, r *http.Request) {
	tokenID := mux.Vars(r)["id"]

	slug := r.URL.Query().Get("category")
	if slug == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "category query parameter is required", nil)
		return
	}

	if err := s.engagement.UntagArtwork(r.Context(), slug, tokenID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"category": slug,
		"tokenId":  tokenID,
	})
}
