package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memoryCache) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func priceServer(t *testing.T, calls *atomic.Int64, price float64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]map[string]float64{
			"ethereum": {"usd": price},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEthUSDFetchesAndCaches(t *testing.T) {
	var calls atomic.Int64
	server := priceServer(t, &calls, 3000.5)

	oracle := NewOracle(server.URL, newMemoryCache(), time.Minute)
	ctx := context.Background()

	quote, err := oracle.EthUSD(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3000.5, quote.Price)
	assert.Equal(t, "eth", quote.Symbol)
	assert.False(t, quote.Stale)

	// Second call is served from the injected cache.
	_, err = oracle.EthUSD(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestEthUSDServesStaleQuoteOnFailure(t *testing.T) {
	var calls atomic.Int64
	server := priceServer(t, &calls, 2800)

	// No shared cache, so every call hits the upstream.
	oracle := NewOracle(server.URL, nil, time.Minute)
	ctx := context.Background()

	first, err := oracle.EthUSD(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(2800), first.Price)

	server.Close()

	stale, err := oracle.EthUSD(ctx)
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, float64(2800), stale.Price)
}

func TestEthUSDFailsWithoutAnyQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	oracle := NewOracle(server.URL, nil, time.Minute)
	_, err := oracle.EthUSD(context.Background())
	assert.Error(t, err)
}

func TestEthUSDRejectsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]map[string]float64{"bitcoin": {"usd": 60000}})
	}))
	t.Cleanup(server.Close)

	oracle := NewOracle(server.URL, nil, time.Minute)
	_, err := oracle.EthUSD(context.Background())
	assert.Error(t, err)
}
