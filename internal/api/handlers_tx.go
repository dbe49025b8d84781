package api

import (
	"math/big"
	"net/http"

	"github.com/luloxi/molotov/internal/contract"
)

// parseWei parses a decimal wei amount. Amounts travel as strings because
// uint256 values overflow JSON numbers.
func parseWei(value string) (*big.Int, bool) {
	if value == "" {
		return nil, false
	}
	wei, ok := new(big.Int).SetString(value, 10)
	if !ok || wei.Sign() < 0 {
		return nil, false
	}
	return wei, true
}

// parseTokenIDInt parses a decimal token ID into a big.Int.
func parseTokenIDInt(value string) (*big.Int, bool) {
	id, ok := new(big.Int).SetString(value, 10)
	if !ok || id.Sign() <= 0 {
		return nil, false
	}
	return id, true
}

type profileRequest struct {
	Name             string `json:"name"`
	Bio              string `json:"bio"`
	ProfileImageHash string `json:"profileImageHash"`
	SocialLinks      string `json:"socialLinks"`
}

// handleRegisterArtistTx builds an unsigned registerArtist transaction.
func (s *Server) handleRegisterArtistTx(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	payload, err := s.txBuilder.RegisterArtistTx(req.Name, req.Bio, req.ProfileImageHash, req.SocialLinks)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// handleUpdateProfileTx builds an unsigned updateArtistProfile transaction.
func (s *Server) handleUpdateProfileTx(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	payload, err := s.txBuilder.UpdateArtistProfileTx(req.Name, req.Bio, req.ProfileImageHash, req.SocialLinks)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

type mintRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	MediaType     string `json:"mediaType"`
	IPFSHash      string `json:"ipfsHash"`
	MetadataHash  string `json:"metadataHash"`
	PriceWei      string `json:"priceWei"`
	IsForSale     bool   `json:"isForSale"`
	RoyaltyBps    int64  `json:"royaltyBps"`
	EditionNumber int64  `json:"editionNumber"`
	TotalEditions int64  `json:"totalEditions"`
}

// optionalBig converts a request integer into the params form, leaving zero
// values to the builder's defaults.
func optionalBig(v int64) *big.Int {
	if v <= 0 {
		return nil
	}
	return big.NewInt(v)
}

// handleMintTx builds an unsigned mintArtwork transaction.
func (s *Server) handleMintTx(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	price, ok := parseWei(req.PriceWei)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "priceWei must be a non-negative decimal wei amount", nil)
		return
	}

	payload, err := s.txBuilder.MintArtworkTx(contract.MintArtworkParams{
		Title:         req.Title,
		Description:   req.Description,
		MediaType:     req.MediaType,
		IPFSHash:      req.IPFSHash,
		MetadataHash:  req.MetadataHash,
		PriceWei:      price,
		IsForSale:     req.IsForSale,
		RoyaltyBps:    optionalBig(req.RoyaltyBps),
		EditionNumber: optionalBig(req.EditionNumber),
		TotalEditions: optionalBig(req.TotalEditions),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

type purchaseRequest struct {
	TokenID  string `json:"tokenId"`
	PriceWei string `json:"priceWei"`
}

// handlePurchaseTx builds an unsigned purchaseArtwork transaction carrying the
// listed price as the transaction value.
func (s *Server) handlePurchaseTx(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	tokenID, ok := parseTokenIDInt(req.TokenID)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_TOKEN_ID", "tokenId must be a positive decimal integer", nil)
		return
	}
	price, ok := parseWei(req.PriceWei)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "priceWei must be a non-negative decimal wei amount", nil)
		return
	}

	payload, err := s.txBuilder.PurchaseArtworkTx(tokenID, price)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

type updateListingRequest struct {
	TokenID     string `json:"tokenId"`
	NewPriceWei string `json:"newPriceWei"`
	IsForSale   bool   `json:"isForSale"`
}

// handleUpdateListingTx builds an unsigned updateArtworkListing transaction.
func (s *Server) handleUpdateListingTx(w http.ResponseWriter, r *http.Request) {
	var req updateListingRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	tokenID, ok := parseTokenIDInt(req.TokenID)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_TOKEN_ID", "tokenId must be a positive decimal integer", nil)
		return
	}
	price, ok := parseWei(req.NewPriceWei)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "newPriceWei must be a non-negative decimal wei amount", nil)
		return
	}

	payload, err := s.txBuilder.UpdateArtworkListingTx(tokenID, price, req.IsForSale)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}
