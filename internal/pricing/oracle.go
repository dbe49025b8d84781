// Package pricing quotes the fiat value of ETH for gallery price display.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/luloxi/molotov/internal/errors"
	"github.com/luloxi/molotov/internal/logging"
)

// Quote is one fiat price observation.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Currency  string    `json:"currency"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetchedAt"`
	Stale     bool      `json:"stale,omitempty"`
}

// QuoteCache is the TTL cache quotes are parked in between upstream fetches.
// *storage.CacheService satisfies it; tests inject fakes.
type QuoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Oracle fetches the ETH/USD quote from an upstream price API through an
// injected TTL cache. When the upstream is down, the last successful quote
// is served marked stale rather than failing the request.
type Oracle struct {
	endpoint   string
	httpClient *http.Client
	cache      QuoteCache
	ttl        time.Duration
	logger     *logging.Logger

	mu       sync.RWMutex
	lastGood *Quote
}

// NewOracle creates a price oracle. cache may be nil, which disables the
// shared cache but keeps the in-process last-good fallback.
func NewOracle(endpoint string, cache QuoteCache, ttl time.Duration) *Oracle {
	return &Oracle{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		ttl:        ttl,
		logger:     logging.GetGlobalLogger().WithField("component", "pricing"),
	}
}

const cacheKey = "price:eth:usd"

// EthUSD returns the current ETH price in USD.
func (o *Oracle) EthUSD(ctx context.Context) (*Quote, error) {
	if o.cache != nil {
		var cached Quote
		if hit, err := o.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	quote, err := o.fetch(ctx)
	if err != nil {
		o.mu.RLock()
		last := o.lastGood
		o.mu.RUnlock()

		if last != nil {
			o.logger.WithError(err).Warn("Price fetch failed, serving stale quote")
			stale := *last
			stale.Stale = true
			return &stale, nil
		}
		return nil, err
	}

	o.mu.Lock()
	o.lastGood = quote
	o.mu.Unlock()

	if o.cache != nil {
		if err := o.cache.SetWithTTL(ctx, cacheKey, quote, o.ttl); err != nil {
			o.logger.WithError(err).Warn("Failed to cache price quote")
		}
	}

	return quote, nil
}

func (o *Oracle) fetch(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint, nil)
	if err != nil {
		return nil, errors.NewInternalError("price request build failed", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewInternalError("price fetch failed", err)
	}
	defer func() {
		_ = resp.Body.Close() // nolint:errcheck // cleanup in defer
	}()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.NewInternalError(
			fmt.Sprintf("price API returned %d: %s", resp.StatusCode, string(payload)), nil)
	}

	// Coingecko simple-price shape: {"ethereum":{"usd":3000.12}}
	var parsed map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.NewInternalError("price response decode failed", err)
	}

	price, ok := parsed["ethereum"]["usd"]
	if !ok || price <= 0 {
		return nil, errors.NewInternalError("price response missing ethereum/usd quote", nil)
	}

	return &Quote{
		Symbol:    "eth",
		Currency:  "usd",
		Price:     price,
		FetchedAt: time.Now(),
	}, nil
}
