// Package ipfs pins gallery media and metadata through the Pinata API and
// builds gateway URLs for serving pinned content.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/luloxi/molotov/internal/config"
	"github.com/luloxi/molotov/internal/errors"
	"github.com/luloxi/molotov/internal/logging"
)

// MaxFileSize is the largest upload accepted for pinning.
const MaxFileSize = 100 << 20 // 100 MiB

// fallbackGateways serve content when the configured gateway is down.
var fallbackGateways = []string{
	"https://ipfs.io",
	"https://cloudflare-ipfs.com",
	"https://dweb.link",
}

var cidPattern = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|b[a-z2-7]{58})$`)

// ValidateCID checks that a string looks like an IPFS content identifier
func ValidateCID(hash string) bool {
	return cidPattern.MatchString(hash)
}

// PinResult is the pinning service's receipt for stored content.
type PinResult struct {
	IPFSHash  string    `json:"ipfsHash"`
	PinSize   int64     `json:"pinSize"`
	Timestamp time.Time `json:"timestamp"`
}

// Client talks to the Pinata pinning API.
type Client struct {
	endpoint   string
	jwt        string
	gatewayURL string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a pinning client from configuration.
func NewClient(cfg *config.PinningConfig) *Client {
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		jwt:        cfg.JWT,
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.GetGlobalLogger().WithField("component", "ipfs"),
	}
}

type pinataResponse struct {
	IPFSHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinFile uploads and pins a media file. Metadata keys become Pinata
// keyvalues and surface in the pin listing UI.
func (c *Client) PinFile(ctx context.Context, filename string, content io.Reader, size int64, metadata map[string]string) (*PinResult, error) {
	if filename == "" {
		return nil, errors.NewInvalidParameterError("filename", "cannot be empty")
	}
	if size > MaxFileSize {
		return nil, errors.NewInvalidParameterError("file", fmt.Sprintf("exceeds maximum size of %d bytes", MaxFileSize))
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.NewPinningError("multipart encode", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, errors.NewPinningError("file read", err)
	}

	if len(metadata) > 0 {
		meta := map[string]interface{}{
			"name":      filename,
			"keyvalues": metadata,
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, errors.NewPinningError("metadata encode", err)
		}
		if err := writer.WriteField("pinataMetadata", string(metaJSON)); err != nil {
			return nil, errors.NewPinningError("metadata write", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, errors.NewPinningError("multipart finalize", err)
	}

	return c.pin(ctx, "/pinning/pinFileToIPFS", &body, writer.FormDataContentType())
}

// PinJSON pins a JSON document, typically artwork metadata.
func (c *Client) PinJSON(ctx context.Context, name string, payload interface{}) (*PinResult, error) {
	request := map[string]interface{}{
		"pinataContent": payload,
		"pinataMetadata": map[string]interface{}{
			"name": name,
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.NewPinningError("json encode", err)
	}

	return c.pin(ctx, "/pinning/pinJSONToIPFS", bytes.NewReader(body), "application/json")
}

func (c *Client) pin(ctx context.Context, path string, body io.Reader, contentType string) (*PinResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, body)
	if err != nil {
		return nil, errors.NewPinningError("request build", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewPinningError("upload", err)
	}
	defer func() {
		_ = resp.Body.Close() // nolint:errcheck // cleanup in defer
	}()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.NewPinningError("upload", fmt.Errorf("pinning service returned %d: %s", resp.StatusCode, string(payload)))
	}

	var parsed pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.NewPinningError("response decode", err)
	}
	if parsed.IPFSHash == "" {
		return nil, errors.NewPinningError("upload", fmt.Errorf("pinning service returned no content hash"))
	}

	result := &PinResult{
		IPFSHash: parsed.IPFSHash,
		PinSize:  parsed.PinSize,
	}
	if ts, err := time.Parse(time.RFC3339, parsed.Timestamp); err == nil {
		result.Timestamp = ts
	}

	c.logger.WithFields(map[string]interface{}{
		"hash": result.IPFSHash,
		"size": result.PinSize,
	}).Info("Content pinned")

	return result, nil
}

// GatewayURL builds the serving URL for a pinned hash on the primary
// gateway.
func (c *Client) GatewayURL(hash string) string {
	return fmt.Sprintf("%s/ipfs/%s", c.gatewayURL, hash)
}

// GatewayURLs returns the primary gateway URL followed by public fallbacks,
// in the order a client should try them.
func (c *Client) GatewayURLs(hash string) []string {
	urls := []string{c.GatewayURL(hash)}
	for _, gw := range fallbackGateways {
		urls = append(urls, fmt.Sprintf("%s/ipfs/%s", gw, hash))
	}
	return urls
}
