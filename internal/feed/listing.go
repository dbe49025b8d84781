package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/logging"
	"github.com/luloxi/molotov/internal/types"
)

// ListingTimes maps token ID to its derived most-recent listing record.
type ListingTimes map[string]types.ListingTimeRecord

// TimeOf returns the listing time for a token, or the fallback (typically
// the artwork's creation time) when no listing event was observed.
func (lt ListingTimes) TimeOf(tokenID string, fallback time.Time) time.Time {
	if rec, ok := lt[tokenID]; ok {
		return rec.Timestamp
	}
	return fallback
}

// Resolver derives each token's most recent listing time from the mint and
// price-update event history. A mint seeds the listing time; a later
// price update that lists the token for sale replaces it. Updates that take
// a token off sale never change the record: the table answers "when was this
// last listed", not "is it listed".
type Resolver struct {
	reader     ChainReader
	binding    *contract.Binding
	normalizer *Normalizer
	cfg        MonitorConfig
	logger     *logging.Logger
}

// NewResolver creates a listing-time resolver over the full event history.
// The feed's lookback window does not apply here: mints seed listing times,
// so the scan always starts at the deployment block.
func NewResolver(reader ChainReader, binding *contract.Binding, cfg MonitorConfig) *Resolver {
	if cfg.AvgBlockTime <= 0 {
		cfg.AvgBlockTime = 2 * time.Second
	}

	return &Resolver{
		reader:     reader,
		binding:    binding,
		normalizer: NewNormalizer(binding, cfg.AvgBlockTime),
		cfg:        cfg,
		logger:     logging.GetGlobalLogger().WithField("component", "listing_resolver"),
	}
}

// Resolve scans the mint and price-update history and builds the listing
// time table. The two scans run concurrently and join all-or-nothing.
func (r *Resolver) Resolve(ctx context.Context) (ListingTimes, error) {
	head, err := r.reader.HeadBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chain head: %w", err)
	}

	var mintLogs, priceLogs []ethtypes.Log

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mintLogs, err = r.fetch(gctx, r.binding.MintedTopic(), head)
		return err
	})
	g.Go(func() error {
		var err error
		priceLogs, err = r.fetch(gctx, r.binding.PriceUpdatedTopic(), head)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	times := make(ListingTimes)

	for _, log := range mintLogs {
		ev, err := r.binding.DecodeMinted(log)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping undecodable mint log")
			continue
		}
		tokenID := ev.TokenID.String()
		if existing, ok := times[tokenID]; ok && existing.BlockNumber >= log.BlockNumber {
			continue
		}
		times[tokenID] = types.ListingTimeRecord{
			TokenID:     tokenID,
			Timestamp:   r.normalizer.EstimateTimestamp(log.BlockNumber, head),
			BlockNumber: log.BlockNumber,
		}
	}

	for _, log := range priceLogs {
		ev, err := r.binding.DecodePriceUpdated(log)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping undecodable price update log")
			continue
		}
		if !ev.IsForSale {
			continue
		}
		tokenID := ev.TokenID.String()
		if existing, ok := times[tokenID]; ok && existing.BlockNumber >= log.BlockNumber {
			continue
		}
		times[tokenID] = types.ListingTimeRecord{
			TokenID:     tokenID,
			Timestamp:   r.normalizer.EstimateTimestamp(log.BlockNumber, head),
			BlockNumber: log.BlockNumber,
		}
	}

	r.logger.WithField("tokens", len(times)).Debug("Listing times resolved")
	return times, nil
}

func (r *Resolver) fetch(ctx context.Context, topic common.Hash, head uint64) ([]ethtypes.Log, error) {
	return r.reader.FilterLogsChunked(ctx, r.binding.Address(), topic, r.cfg.DeploymentBlock, head, r.cfg.ChunkSize)
}
