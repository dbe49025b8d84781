package ipfs

import (
	"fmt"
	"strings"

	"github.com/luloxi/molotov/internal/errors"
)

// allowedMediaPrefixes are the upload content types accepted for pinning.
var allowedMediaPrefixes = []string{"image/", "video/", "audio/", "model/"}

// ValidateMediaContentType checks an upload's MIME type against the media
// kinds the gallery can render.
func ValidateMediaContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, prefix := range allowedMediaPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// MetadataAttribute is one trait in an ERC-721 metadata document.
type MetadataAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// ArtworkMetadata is the ERC-721 style metadata document pinned for each
// artwork. Image and AnimationURL are ipfs:// URIs.
type ArtworkMetadata struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Image        string              `json:"image"`
	AnimationURL string              `json:"animation_url,omitempty"`
	ExternalURL  string              `json:"external_url,omitempty"`
	Attributes   []MetadataAttribute `json:"attributes,omitempty"`
}

// MetadataParams are the inputs to an artwork metadata document.
type MetadataParams struct {
	Name          string
	Description   string
	MediaHash     string
	MediaType     string
	AnimationHash string
	ExternalURL   string
	Artist        string
	EditionNumber uint64
	TotalEditions uint64
}

// BuildArtworkMetadata assembles the ERC-721 metadata document for an
// artwork. The media hash must be a valid content identifier.
func BuildArtworkMetadata(params MetadataParams) (*ArtworkMetadata, error) {
	if params.Name == "" {
		return nil, errors.NewInvalidParameterError("name", "cannot be empty")
	}
	if !ValidateCID(params.MediaHash) {
		return nil, errors.NewInvalidParameterError("mediaHash", "not a valid content identifier")
	}
	if params.AnimationHash != "" && !ValidateCID(params.AnimationHash) {
		return nil, errors.NewInvalidParameterError("animationHash", "not a valid content identifier")
	}

	meta := &ArtworkMetadata{
		Name:        params.Name,
		Description: params.Description,
		Image:       "ipfs://" + params.MediaHash,
		ExternalURL: params.ExternalURL,
	}
	if params.AnimationHash != "" {
		meta.AnimationURL = "ipfs://" + params.AnimationHash
	}

	if params.Artist != "" {
		meta.Attributes = append(meta.Attributes, MetadataAttribute{TraitType: "Artist", Value: params.Artist})
	}
	if params.MediaType != "" {
		meta.Attributes = append(meta.Attributes, MetadataAttribute{TraitType: "Media Type", Value: params.MediaType})
	}
	if params.TotalEditions > 0 {
		meta.Attributes = append(meta.Attributes,
			MetadataAttribute{TraitType: "Edition", Value: fmt.Sprintf("%d/%d", params.EditionNumber, params.TotalEditions)},
		)
	}

	return meta, nil
}
