// Package feed ingests marketplace contract events into a bounded, ordered
// activity feed and derives per-token listing times from the event history.
package feed

import (
	"fmt"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/luloxi/molotov/internal/chain"
	"github.com/luloxi/molotov/internal/contract"
	"github.com/luloxi/molotov/internal/types"
)

// Normalizer turns raw contract logs into ActivityEvents. Block timestamps
// are not fetched per log; they are estimated from the distance to the chain
// head and the network's average block time.
type Normalizer struct {
	binding      *contract.Binding
	avgBlockTime time.Duration
	now          func() time.Time
}

// NewNormalizer creates a normalizer for the bound contract.
func NewNormalizer(binding *contract.Binding, avgBlockTime time.Duration) *Normalizer {
	return &Normalizer{
		binding:      binding,
		avgBlockTime: avgBlockTime,
		now:          time.Now,
	}
}

// EstimateTimestamp estimates when a block was produced, counting backwards
// from the head at the average block interval. Blocks at or past the head
// estimate to the current time.
func (n *Normalizer) EstimateTimestamp(blockNumber, head uint64) time.Time {
	now := n.now()
	if blockNumber >= head {
		return now
	}
	behind := time.Duration(head-blockNumber) * n.avgBlockTime
	return now.Add(-behind)
}

// Normalize decodes a contract log into an ActivityEvent. Logs whose topic0
// is not one of the marketplace events are an error; the feed's event set is
// closed and an unknown log means the filter query is wrong.
func (n *Normalizer) Normalize(log ethtypes.Log, head uint64) (*types.ActivityEvent, error) {
	if log.Removed {
		return nil, fmt.Errorf("log %s-%d was removed by a reorg", log.TxHash.Hex(), log.Index)
	}
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log %s-%d has no topics", log.TxHash.Hex(), log.Index)
	}

	base := types.ActivityEvent{
		ID:          types.EventID(log.TxHash.Hex(), log.Index),
		ObservedAt:  n.EstimateTimestamp(log.BlockNumber, head),
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		TxHash:      log.TxHash.Hex(),
	}

	switch log.Topics[0] {
	case n.binding.MintedTopic():
		ev, err := n.binding.DecodeMinted(log)
		if err != nil {
			return nil, err
		}
		base.Kind = types.KindMint
		base.TokenID = ev.TokenID.String()
		base.Actor = chain.NormalizeAddress(ev.Artist.Hex())
		base.AmountWei = ev.Price.String()
		base.Title = ev.Title
		return &base, nil

	case n.binding.PurchasedTopic():
		ev, err := n.binding.DecodePurchased(log)
		if err != nil {
			return nil, err
		}
		base.Kind = types.KindPurchase
		base.TokenID = ev.TokenID.String()
		// The seller is the acting party: their registered name is what the
		// feed displays for a sale.
		base.Actor = chain.NormalizeAddress(ev.Seller.Hex())
		base.Counterparty = chain.NormalizeAddress(ev.Buyer.Hex())
		base.AmountWei = ev.Price.String()
		return &base, nil

	case n.binding.RegisteredTopic():
		ev, err := n.binding.DecodeRegistered(log)
		if err != nil {
			return nil, err
		}
		base.Kind = types.KindRegister
		base.Actor = chain.NormalizeAddress(ev.Artist.Hex())
		base.ActorName = ev.Name
		return &base, nil

	default:
		return nil, fmt.Errorf("log %s-%d has unknown topic0 %s", log.TxHash.Hex(), log.Index, log.Topics[0].Hex())
	}
}
