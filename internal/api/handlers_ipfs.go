package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/luloxi/molotov/internal/ipfs"
)

// handlePinFile pins an uploaded media file. The multipart form carries the
// file under "file"; every other form field becomes pin metadata.
func (s *Server) handlePinFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(ipfs.MaxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid multipart upload", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Multipart field \"file\" is required", nil)
		return
	}
	defer func() {
		_ = file.Close() // nolint:errcheck // cleanup in defer
	}()

	if ct := header.Header.Get("Content-Type"); ct != "" && !ipfs.ValidateMediaContentType(ct) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Unsupported media type: "+ct, nil)
		return
	}

	metadata := make(map[string]string)
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			metadata[key] = values[0]
		}
	}

	result, err := s.pinner.PinFile(r.Context(), header.Filename, file, header.Size, metadata)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

type pinMetadataRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	MediaHash     string `json:"mediaHash"`
	MediaType     string `json:"mediaType"`
	AnimationHash string `json:"animationHash"`
	ExternalURL   string `json:"externalUrl"`
	Artist        string `json:"artist"`
	EditionNumber uint64 `json:"editionNumber"`
	TotalEditions uint64 `json:"totalEditions"`
}

// handlePinMetadata builds the ERC-721 metadata document for an artwork and
// pins it. The response carries the metadata hash to pass into the mint.
func (s *Server) handlePinMetadata(w http.ResponseWriter, r *http.Request) {
	var req pinMetadataRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid JSON body", nil)
		return
	}

	metadata, err := ipfs.BuildArtworkMetadata(ipfs.MetadataParams{
		Name:          req.Name,
		Description:   req.Description,
		MediaHash:     req.MediaHash,
		MediaType:     req.MediaType,
		AnimationHash: req.AnimationHash,
		ExternalURL:   req.ExternalURL,
		Artist:        req.Artist,
		EditionNumber: req.EditionNumber,
		TotalEditions: req.TotalEditions,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.pinner.PinJSON(r.Context(), req.Name+".json", metadata)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// handleGatewayURLs returns the gateway URLs to try for a pinned hash, primary
// first, public fallbacks after.
func (s *Server) handleGatewayURLs(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if !ipfs.ValidateCID(hash) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid content identifier", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash": hash,
		"urls": s.pinner.GatewayURLs(hash),
	})
}
