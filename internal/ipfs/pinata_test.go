package ipfs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luloxi/molotov/internal/config"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.PinningConfig{
		Endpoint:   server.URL,
		JWT:        "test-jwt",
		GatewayURL: "https://gateway.pinata.cloud",
	})
	return client, server
}

func TestPinFile(t *testing.T) {
	var gotAuth, gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "dawn.png", header.Filename)

		meta := r.FormValue("pinataMetadata")
		assert.Contains(t, meta, `"artist":"frida"`)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"IpfsHash":  testCID,
			"PinSize":   1234,
			"Timestamp": "2026-03-01T12:00:00Z",
		})
	})

	result, err := client.PinFile(context.Background(), "dawn.png", strings.NewReader("png-bytes"), 9, map[string]string{"artist": "frida"})
	require.NoError(t, err)

	assert.Equal(t, testCID, result.IPFSHash)
	assert.Equal(t, int64(1234), result.PinSize)
	assert.Equal(t, "Bearer test-jwt", gotAuth)
	assert.Equal(t, "/pinning/pinFileToIPFS", gotPath)
}

func TestPinFileRejectsOversizedUpload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("oversized upload must not reach the pinning service")
	})

	_, err := client.PinFile(context.Background(), "huge.bin", strings.NewReader(""), MaxFileSize+1, nil)
	assert.Error(t, err)
}

func TestPinJSON(t *testing.T) {
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"IpfsHash": testCID})
	})

	metadata := map[string]string{"name": "Dawn", "image": "ipfs://" + testCID}
	result, err := client.PinJSON(context.Background(), "dawn-metadata", metadata)
	require.NoError(t, err)
	assert.Equal(t, testCID, result.IPFSHash)

	content, ok := gotBody["pinataContent"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Dawn", content["name"])
}

func TestPinSurfacesServiceErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid JWT"}`, http.StatusUnauthorized)
	})

	_, err := client.PinJSON(context.Background(), "x", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPinRejectsEmptyHashResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"PinSize": 1})
	})

	_, err := client.PinJSON(context.Background(), "x", map[string]string{})
	assert.Error(t, err)
}

func TestGatewayURLs(t *testing.T) {
	client := NewClient(&config.PinningConfig{GatewayURL: "https://gateway.pinata.cloud/"})

	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/"+testCID, client.GatewayURL(testCID))

	urls := client.GatewayURLs(testCID)
	require.Len(t, urls, 4)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/"+testCID, urls[0])
	assert.Equal(t, "https://ipfs.io/ipfs/"+testCID, urls[1])
}

func TestValidateCID(t *testing.T) {
	assert.True(t, ValidateCID(testCID))
	assert.False(t, ValidateCID("not-a-cid"))
	assert.False(t, ValidateCID(""))
	assert.False(t, ValidateCID("Qmshort"))
}
