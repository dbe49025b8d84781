package chain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRanges(t *testing.T) {
	tests := []struct {
		name      string
		from      uint64
		to        uint64
		chunkSize uint64
		expected  []BlockRange
	}{
		{
			name:      "range smaller than chunk",
			from:      100,
			to:        200,
			chunkSize: 45000,
			expected:  []BlockRange{{From: 100, To: 200}},
		},
		{
			name:      "exact single chunk",
			from:      1,
			to:        45000,
			chunkSize: 45000,
			expected:  []BlockRange{{From: 1, To: 45000}},
		},
		{
			name:      "100k blocks with 45k cap splits into exactly three chunks",
			from:      1,
			to:        100000,
			chunkSize: 45000,
			expected: []BlockRange{
				{From: 1, To: 45000},
				{From: 45001, To: 90000},
				{From: 90001, To: 100000},
			},
		},
		{
			name:      "single block",
			from:      7,
			to:        7,
			chunkSize: 10,
			expected:  []BlockRange{{From: 7, To: 7}},
		},
		{
			name:      "inverted range yields nothing",
			from:      10,
			to:        5,
			chunkSize: 10,
			expected:  nil,
		},
		{
			name:      "zero chunk size disables splitting",
			from:      1,
			to:        100,
			chunkSize: 0,
			expected:  []BlockRange{{From: 1, To: 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkRanges(tt.from, tt.to, tt.chunkSize)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChunkRangesLossless(t *testing.T) {
	// Every block in [from, to] must be covered exactly once.
	from, to, size := uint64(1), uint64(100000), uint64(45000)
	ranges := ChunkRanges(from, to, size)
	require.NotEmpty(t, ranges)

	assert.Equal(t, from, ranges[0].From)
	assert.Equal(t, to, ranges[len(ranges)-1].To)

	var covered uint64
	for i, r := range ranges {
		require.LessOrEqual(t, r.From, r.To)
		span := r.To - r.From + 1
		assert.LessOrEqual(t, span, size)
		covered += span
		if i > 0 {
			assert.Equal(t, ranges[i-1].To+1, r.From, "chunks must be contiguous")
		}
	}
	assert.Equal(t, to-from+1, covered)
}

func TestValidateAddress(t *testing.T) {
	assert.True(t, ValidateAddress("0xAAbbccddeeff00112233445566778899aAbBcCdD"))
	assert.False(t, ValidateAddress("0x1234"))
	assert.False(t, ValidateAddress("AAbbccddeeff00112233445566778899aAbBcCdD"))
	assert.False(t, ValidateAddress("0xZZbbccddeeff00112233445566778899aabbccdd"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xaabbccddeeff00112233445566778899aabbccdd",
		NormalizeAddress("  0xAAbbCCddEEff00112233445566778899aAbBcCdD "))
}

func TestRPCProviderFailover(t *testing.T) {
	p, err := NewRPCProvider("https://primary.example", "https://secondary.example")
	require.NoError(t, err)
	assert.Equal(t, "https://primary.example", p.CurrentURL())

	require.NoError(t, p.Failover())
	assert.Equal(t, "https://secondary.example", p.CurrentURL())

	require.NoError(t, p.Failover())
	assert.Equal(t, "https://primary.example", p.CurrentURL())

	p.Reset()
	assert.Equal(t, "https://primary.example", p.CurrentURL())
}

func TestRPCProviderWithoutSecondary(t *testing.T) {
	p, err := NewRPCProvider("https://primary.example", "")
	require.NoError(t, err)
	assert.Error(t, p.Failover())

	_, err = NewRPCProvider("", "")
	assert.Error(t, err)
}

// slowRPCServer answers every JSON-RPC request after a fixed delay, counting
// the requests it receives.
func slowRPCServer(t *testing.T, delay time.Duration, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHeadBlockFailoverRetriesOnce(t *testing.T) {
	var calls int32
	server := slowRPCServer(t, 300*time.Millisecond, &calls)

	// Both endpoints time out. A timeout triggers failover, and the retry
	// on the alternate endpoint must be the last attempt.
	p, err := NewRPCProvider(server.URL, server.URL)
	require.NoError(t, err)
	c, err := NewClient(p, 50*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.HeadBlock(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("HeadBlock did not return after a single failover retry")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHeadBlockConcurrentCallsDuringFailover(t *testing.T) {
	var calls int32
	server := slowRPCServer(t, 200*time.Millisecond, &calls)

	p, err := NewRPCProvider(server.URL, server.URL)
	require.NoError(t, err)
	c, err := NewClient(p, 30*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	// Every goroutine races the endpoint swap in redial.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.HeadBlock(context.Background())
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("concurrent HeadBlock calls did not all return")
	}
}

func TestRPCProviderHealth(t *testing.T) {
	p, err := NewRPCProvider("https://primary.example", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		p.RecordFailure()
	}
	assert.False(t, p.Health().IsHealthy)

	p.RecordSuccess()
	health := p.Health()
	assert.True(t, health.IsHealthy)
	assert.Equal(t, int64(6), health.TotalRequests)
	assert.Equal(t, int64(5), health.FailedRequests)
}
