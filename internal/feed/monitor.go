package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/retry"
	"github.com/luloxi/molotov/internal/types"
)

// ChainReader is the slice of the chain client the monitor needs.
// *chain.Client satisfies it; tests use fakes.
type ChainReader interface {
	HeadBlock(ctx context.Context) (uint64, error)
	FilterLogsChunked(ctx context.Context, address common.Address, topic0 common.Hash, from, to, chunkSize uint64) ([]ethtypes.Log, error)
	SubscribeLogs(ctx context.Context, address common.Address, topic0 common.Hash, ch chan<- ethtypes.Log) (ethereum.Subscription, error)
}

// MonitorConfig bounds the feed and scopes the historical scan.
type MonitorConfig struct {
	MaxEvents       int
	DeploymentBlock uint64
	LookbackBlocks  uint64
	ChunkSize       uint64
	AvgBlockTime    time.Duration
}

// scanFrom picks the start block for the feed's historical scan: a fixed
// number of blocks behind the head when a lookback is configured, the
// contract deployment block otherwise. The deployment block is the floor
// either way.
func (c MonitorConfig) scanFrom(head uint64) uint64 {
	from := c.DeploymentBlock
	if c.LookbackBlocks > 0 && head > c.LookbackBlocks {
		if lookback := head - c.LookbackBlocks; lookback > from {
			from = lookback
		}
	}
	return from
}

// Snapshot is a point-in-time copy of the feed state.
type Snapshot struct {
	Events      []types.ActivityEvent `json:"events"`
	Loading     bool                  `json:"loading"`
	LastError   string                `json:"lastError,omitempty"`
	RefreshedAt time.Time             `json:"refreshedAt"`
}

// Monitor maintains the bounded activity feed: a historical backfill joined
// from all event kinds, kept current by live subscriptions. The newest
// MaxEvents events survive, ordered by block number then log index, newest
// first. A failed refresh never clobbers the last good feed.
type Monitor struct {
	reader     ChainReader
	binding    *contract.Binding
	normalizer *Normalizer
	cfg        MonitorConfig
	logger     *logging.Logger

	mu          sync.RWMutex
	events      []types.ActivityEvent
	names       map[string]string
	loading     bool
	lastErr     error
	refreshedAt time.Time
	refreshSeq  uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a feed monitor. It does nothing until Start is called.
func NewMonitor(reader ChainReader, binding *contract.Binding, cfg MonitorConfig) *Monitor {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 50
	}
	if cfg.AvgBlockTime <= 0 {
		cfg.AvgBlockTime = 2 * time.Second
	}

	return &Monitor{
		reader:     reader,
		binding:    binding,
		normalizer: NewNormalizer(binding, cfg.AvgBlockTime),
		cfg:        cfg,
		names:      make(map[string]string),
		logger:     logging.GetGlobalLogger().WithField("component", "feed_monitor"),
	}
}

// Start performs the initial backfill and opens live subscriptions for every
// feed event kind. The initial backfill error is returned but the monitor
// keeps running; a later Refresh or live event can still populate the feed.
func (m *Monitor) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	err := m.Refresh(ctx)

	for _, topic := range []common.Hash{
		m.binding.MintedTopic(),
		m.binding.PurchasedTopic(),
		m.binding.RegisteredTopic(),
	} {
		m.wg.Add(1)
		go m.runSubscription(runCtx, topic)
	}

	return err
}

// Stop tears down all live subscriptions and waits for them to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Snapshot returns a copy of the current feed state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]types.ActivityEvent, len(m.events))
	copy(events, m.events)

	snap := Snapshot{
		Events:      events,
		Loading:     m.loading,
		RefreshedAt: m.refreshedAt,
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}

// ArtistName returns the display name observed for an address, if any.
func (m *Monitor) ArtistName(address string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[address]
	return name, ok
}

// Refresh rebuilds the feed from the full event history. The three event
// kinds are fetched concurrently and joined all-or-nothing: if any fetch
// fails, the previous feed is kept and the error recorded. Concurrent
// refreshes are safe; the one that started last wins.
func (m *Monitor) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.refreshSeq++
	seq := m.refreshSeq
	m.loading = true
	m.mu.Unlock()

	events, names, err := m.fetchHistory(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.refreshSeq {
		// A newer refresh superseded this one.
		return nil
	}
	m.loading = false

	if err != nil {
		m.lastErr = err
		m.logger.WithError(err).Error("Feed refresh failed, keeping previous feed")
		return err
	}

	for addr, name := range names {
		m.names[addr] = name
	}
	m.events = m.rebuild(events)
	m.lastErr = nil
	m.refreshedAt = time.Now()

	m.logger.WithFields(map[string]interface{}{
		"events":  len(m.events),
		"artists": len(m.names),
	}).Info("Feed refreshed")
	return nil
}

func (m *Monitor) fetchHistory(ctx context.Context) ([]types.ActivityEvent, map[string]string, error) {
	head, err := m.reader.HeadBlock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve chain head: %w", err)
	}

	topics := []common.Hash{
		m.binding.MintedTopic(),
		m.binding.PurchasedTopic(),
		m.binding.RegisteredTopic(),
	}
	results := make([][]ethtypes.Log, len(topics))

	from := m.cfg.scanFrom(head)

	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		g.Go(func() error {
			logs, err := m.reader.FilterLogsChunked(gctx, m.binding.Address(), topic, from, head, m.cfg.ChunkSize)
			if err != nil {
				return err
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var events []types.ActivityEvent
	names := make(map[string]string)
	for _, logs := range results {
		for _, log := range logs {
			ev, err := m.normalizer.Normalize(log, head)
			if err != nil {
				m.logger.WithError(err).Warn("Skipping undecodable log")
				continue
			}
			if ev.Kind == types.KindRegister {
				names[ev.Actor] = ev.ActorName
			}
			events = append(events, *ev)
		}
	}
	return events, names, nil
}

// rebuild dedupes, enriches, orders and bounds a raw event list.
// Callers must hold m.mu.
func (m *Monitor) rebuild(events []types.ActivityEvent) []types.ActivityEvent {
	seen := make(map[string]bool, len(events))
	deduped := events[:0]
	for _, ev := range events {
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		m.enrich(&ev)
		deduped = append(deduped, ev)
	}

	sortEvents(deduped)
	if len(deduped) > m.cfg.MaxEvents {
		deduped = deduped[:m.cfg.MaxEvents]
	}
	return deduped
}

// enrich fills in display names from the registration side table.
// Callers must hold m.mu.
func (m *Monitor) enrich(ev *types.ActivityEvent) {
	if ev.ActorName == "" {
		if name, ok := m.names[ev.Actor]; ok {
			ev.ActorName = name
		}
	}
	if ev.CounterpartyName == "" && ev.Counterparty != "" {
		if name, ok := m.names[ev.Counterparty]; ok {
			ev.CounterpartyName = name
		}
	}
}

// Ingest adds a single live event to the feed. Registration events also
// update the name side table and patch names into events already present.
func (m *Monitor) Ingest(ev types.ActivityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Kind == types.KindRegister && ev.ActorName != "" {
		m.names[ev.Actor] = ev.ActorName
		for i := range m.events {
			m.enrich(&m.events[i])
		}
	}

	for _, existing := range m.events {
		if existing.ID == ev.ID {
			return
		}
	}

	m.enrich(&ev)
	m.events = append(m.events, ev)
	sortEvents(m.events)
	if len(m.events) > m.cfg.MaxEvents {
		m.events = m.events[:m.cfg.MaxEvents]
	}
}

// runSubscription keeps one live log subscription alive, reconnecting with
// exponential backoff when the subscription drops.
func (m *Monitor) runSubscription(ctx context.Context, topic common.Hash) {
	defer m.wg.Done()

	logger := m.logger.WithField("topic", topic.Hex())

	for ctx.Err() == nil {
		var sub ethereum.Subscription
		ch := make(chan ethtypes.Log, 64)

		err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
			var subErr error
			sub, subErr = m.reader.SubscribeLogs(ctx, m.binding.Address(), topic, ch)
			return subErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Error("Subscription attempts exhausted, restarting backoff")
			continue
		}

		logger.Info("Live subscription established")
		m.consume(ctx, sub, ch)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Live subscription dropped, reconnecting")
	}
}

func (m *Monitor) consume(ctx context.Context, sub ethereum.Subscription, ch chan ethtypes.Log) {
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				m.logger.WithError(err).Warn("Subscription error")
			}
			return
		case log := <-ch:
			// Live logs sit at the head, so the estimate collapses to now.
			ev, err := m.normalizer.Normalize(log, log.BlockNumber)
			if err != nil {
				m.logger.WithError(err).Warn("Skipping undecodable live log")
				continue
			}
			m.Ingest(*ev)
		}
	}
}

func sortEvents(events []types.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber > events[j].BlockNumber
		}
		return events[i].LogIndex > events[j].LogIndex
	})
}
