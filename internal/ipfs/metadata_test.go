package ipfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMediaContentType(t *testing.T) {
	assert.True(t, ValidateMediaContentType("image/png"))
	assert.True(t, ValidateMediaContentType("video/mp4"))
	assert.True(t, ValidateMediaContentType("audio/ogg"))
	assert.True(t, ValidateMediaContentType("model/gltf-binary"))
	assert.True(t, ValidateMediaContentType("IMAGE/PNG; charset=binary"))

	assert.False(t, ValidateMediaContentType("application/pdf"))
	assert.False(t, ValidateMediaContentType("text/html"))
	assert.False(t, ValidateMediaContentType(""))
}

func TestBuildArtworkMetadata(t *testing.T) {
	meta, err := BuildArtworkMetadata(MetadataParams{
		Name:          "Dawn",
		Description:   "Sunrise over the harbor",
		MediaHash:     testCID,
		MediaType:     "image",
		Artist:        "frida",
		EditionNumber: 2,
		TotalEditions: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dawn", meta.Name)
	assert.Equal(t, "ipfs://"+testCID, meta.Image)
	assert.Empty(t, meta.AnimationURL)

	require.Len(t, meta.Attributes, 3)
	assert.Equal(t, "Artist", meta.Attributes[0].TraitType)
	assert.Equal(t, "frida", meta.Attributes[0].Value)
	assert.Equal(t, "Media Type", meta.Attributes[1].TraitType)
	assert.Equal(t, "Edition", meta.Attributes[2].TraitType)
	assert.Equal(t, "2/10", meta.Attributes[2].Value)
}

func TestBuildArtworkMetadataAnimation(t *testing.T) {
	meta, err := BuildArtworkMetadata(MetadataParams{
		Name:          "Loop",
		MediaHash:     testCID,
		AnimationHash: testCID,
	})
	require.NoError(t, err)
	assert.Equal(t, "ipfs://"+testCID, meta.AnimationURL)
}

func TestBuildArtworkMetadataRejectsBadInput(t *testing.T) {
	_, err := BuildArtworkMetadata(MetadataParams{MediaHash: testCID})
	assert.Error(t, err, "name is required")

	_, err = BuildArtworkMetadata(MetadataParams{Name: "Dawn", MediaHash: "not-a-cid"})
	assert.Error(t, err)

	_, err = BuildArtworkMetadata(MetadataParams{Name: "Dawn", MediaHash: testCID, AnimationHash: "bad"})
	assert.Error(t, err)
}
