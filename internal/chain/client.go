// Package chain provides a read-only connection to an EVM network for the
// gallery's event ingestion and contract reads.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/luloxi/molotov/internal/logging"
)

var addressPattern = regexp.MustCompile("^0x[a-fA-F0-9]{40}$")

// BlockRange is an inclusive block span for a single log query.
type BlockRange struct {
	From uint64
	To   uint64
}

// ChunkRanges splits the inclusive range [from, to] into sub-ranges of at
// most chunkSize blocks. RPC providers cap the span of a single eth_getLogs
// call, and an oversized query can silently return a truncated result, so
// the split must happen before the query is issued.
func ChunkRanges(from, to, chunkSize uint64) []BlockRange {
	if to < from {
		return nil
	}
	if chunkSize == 0 {
		return []BlockRange{{From: from, To: to}}
	}

	var ranges []BlockRange
	for start := from; start <= to; {
		end := start + chunkSize - 1
		if end > to || end < start {
			end = to
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return ranges
}

// Client wraps an ethclient connection with endpoint failover and a
// per-request timeout.
type Client struct {
	mu         sync.RWMutex
	eth        *ethclient.Client
	provider   *RPCProvider
	rpcTimeout time.Duration
	logger     *logging.Logger
}

// NewClient dials the provider's current endpoint.
func NewClient(provider *RPCProvider, rpcTimeout time.Duration) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	eth, err := ethclient.Dial(provider.CurrentURL())
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint %s: %w", provider.CurrentURL(), err)
	}

	return &Client{
		eth:        eth,
		provider:   provider,
		rpcTimeout: rpcTimeout,
		logger:     logging.GetGlobalLogger().WithField("component", "chain"),
	}, nil
}

// HeadBlock returns the current chain head block number.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	callCtx, cancel := c.withTimeout(ctx)
	head, err := c.conn().BlockNumber(callCtx)
	cancel()

	if err != nil && c.shouldFailover(err) && c.redial() {
		// One retry on the alternate endpoint, with a fresh timeout off
		// the caller's context.
		callCtx, cancel = c.withTimeout(ctx)
		head, err = c.conn().BlockNumber(callCtx)
		cancel()
	}
	if err != nil {
		c.provider.RecordFailure()
		return 0, fmt.Errorf("failed to fetch head block: %w", err)
	}

	c.provider.RecordSuccess()
	return head, nil
}

// FilterLogs runs a single eth_getLogs query.
func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]ethtypes.Log, error) {
	callCtx, cancel := c.withTimeout(ctx)
	logs, err := c.conn().FilterLogs(callCtx, query)
	cancel()

	if err != nil && c.shouldFailover(err) && c.redial() {
		callCtx, cancel = c.withTimeout(ctx)
		logs, err = c.conn().FilterLogs(callCtx, query)
		cancel()
	}
	if err != nil {
		c.provider.RecordFailure()
		return nil, fmt.Errorf("failed to filter logs: %w", err)
	}

	c.provider.RecordSuccess()
	return logs, nil
}

// FilterLogsChunked queries the inclusive range [from, to] for logs matching
// address and topic0, splitting the range into chunks of at most chunkSize
// blocks and concatenating results in chunk order.
func (c *Client) FilterLogsChunked(ctx context.Context, address common.Address, topic0 common.Hash, from, to, chunkSize uint64) ([]ethtypes.Log, error) {
	var all []ethtypes.Log

	for _, r := range ChunkRanges(from, to, chunkSize) {
		query := ethereum.FilterQuery{
			Addresses: []common.Address{address},
			Topics:    [][]common.Hash{{topic0}},
			FromBlock: new(big.Int).SetUint64(r.From),
			ToBlock:   new(big.Int).SetUint64(r.To),
		}

		logs, err := c.FilterLogs(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("chunk [%d, %d]: %w", r.From, r.To, err)
		}
		all = append(all, logs...)
	}

	return all, nil
}

// SubscribeLogs opens a live log subscription for a single topic0 on the
// contract address. The caller owns the subscription and must Unsubscribe.
func (c *Client) SubscribeLogs(ctx context.Context, address common.Address, topic0 common.Hash, ch chan<- ethtypes.Log) (ethereum.Subscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{topic0}},
	}

	sub, err := c.conn().SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		c.provider.RecordFailure()
		return nil, fmt.Errorf("failed to subscribe to logs: %w", err)
	}

	c.provider.RecordSuccess()
	return sub, nil
}

// CallContract executes a read-only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &to, Data: data}

	callCtx, cancel := c.withTimeout(ctx)
	res, err := c.conn().CallContract(callCtx, msg, nil)
	cancel()

	if err != nil && c.shouldFailover(err) && c.redial() {
		callCtx, cancel = c.withTimeout(ctx)
		res, err = c.conn().CallContract(callCtx, msg, nil)
		cancel()
	}
	if err != nil {
		c.provider.RecordFailure()
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	c.provider.RecordSuccess()
	return res, nil
}

// Provider returns the underlying RPC provider for health reporting.
func (c *Client) Provider() *RPCProvider {
	return c.provider
}

// Close closes the underlying RPC connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
	}
}

// conn returns the current connection. Failover swaps it out from under
// concurrent callers, so every call site must go through here.
func (c *Client) conn() *ethclient.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eth
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.rpcTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.rpcTimeout)
}

// redial fails over to the alternate endpoint and reconnects. Returns false
// when no alternate endpoint is available.
func (c *Client) redial() bool {
	if err := c.provider.Failover(); err != nil {
		return false
	}

	eth, err := ethclient.Dial(c.provider.CurrentURL())
	if err != nil {
		c.logger.WithError(err).Warn("Failed to dial failover endpoint")
		return false
	}

	c.logger.WithField("endpoint", c.provider.CurrentURL()).Warn("Switched RPC endpoint")

	c.mu.Lock()
	old := c.eth
	c.eth = eth
	c.mu.Unlock()

	// Closing the dead connection drops its in-flight calls and
	// subscriptions; the monitor's backoff loop re-subscribes.
	if old != nil {
		old.Close()
	}
	return true
}

// shouldFailover determines if an error warrants switching endpoints
func (c *Client) shouldFailover(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") {
		return true
	}

	return false
}

// ValidateAddress checks if an address string is a well-formed EVM address.
func ValidateAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// NormalizeAddress canonicalizes an address for comparison. Chain addresses
// are case-insensitive but often rendered with mixed-case checksums, so all
// lookups go through this.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
