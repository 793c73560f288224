package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokenforge/sale-analytics/internal/metrics"
	"github.com/tokenforge/sale-analytics/internal/source"
	"github.com/tokenforge/sale-analytics/internal/store"
)

// Collector merges quantity readings from all registered sources into one
// snapshot and appends it to the store.
type Collector struct {
	store   SnapshotStore
	logger  *slog.Logger
	sources []source.Source
	now     func() time.Time
}

func NewCollector(s SnapshotStore, logger *slog.Logger, sources ...source.Source) *Collector {
	return &Collector{
		store:   s,
		logger:  logger,
		sources: sources,
		now:     time.Now,
	}
}

// Capture reads every source and appends one snapshot. A failed source or a
// failed write aborts the whole capture; nothing partial is persisted and
// the next attempt is the next scheduler interval.
func (c *Collector) Capture(ctx context.Context) (*store.Snapshot, error) {
	vals := make(map[string]float64)
	for _, src := range c.sources {
		readings, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src.Name(), err)
		}
		for name, v := range readings {
			vals[name] = v
		}
	}

	snap := &store.Snapshot{
		CapturedAt:         c.now().UTC(),
		Volume24h:          vals[source.QtyVolume24h],
		TxCount24h:         int64(vals[source.QtyTxCount24h]),
		Holders:            int64(vals[source.QtyHolders]),
		Participants:       int64(vals[source.QtyParticipants]),
		TokensSold:         vals[source.QtyTokensSold],
		TotalRaised:        vals[source.QtyTotalRaised],
		TokenPrice:         vals[source.QtyTokenPrice],
		RewardsDistributed: vals[source.QtyRewardsDistributed],
	}

	if err := c.store.AppendSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("append snapshot: %w", err)
	}

	for name, v := range vals {
		metrics.QuantityValue.WithLabelValues(name).Set(v)
	}
	metrics.SnapshotsCapturedTotal.Inc()

	c.logger.Info("snapshot captured",
		"price", snap.TokenPrice,
		"tokens_sold", snap.TokensSold,
		"total_raised", snap.TotalRaised,
		"holders", snap.Holders,
	)
	return snap, nil
}
