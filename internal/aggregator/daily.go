package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokenforge/sale-analytics/internal/metrics"
	"github.com/tokenforge/sale-analytics/internal/store"
)

// DailyAggregator computes the once-per-day rollup from yesterday's
// snapshots. The whole operation is idempotent: the existence check up front
// and the store's uniqueness constraint together guarantee at most one
// rollup per day even across restarts.
type DailyAggregator struct {
	store  SnapshotStore
	logger *slog.Logger
	now    func() time.Time

	// Notify, when set, is called after a rollup is created.
	Notify func(ctx context.Context, r *store.DailyRollup)
}

func NewDailyAggregator(s SnapshotStore, logger *slog.Logger) *DailyAggregator {
	return &DailyAggregator{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// AggregateYesterday rolls up the previous UTC day if not already done.
// A day with no snapshots produces no rollup rather than a false zero row.
func (a *DailyAggregator) AggregateYesterday(ctx context.Context) error {
	day := startOfDay(a.now().UTC().AddDate(0, 0, -1))

	existing, err := a.store.DailyRollup(ctx, day)
	if err != nil {
		return fmt.Errorf("check rollup for %s: %w", day.Format("2006-01-02"), err)
	}
	if existing != nil {
		metrics.RollupsSkippedTotal.WithLabelValues("exists").Inc()
		return nil
	}

	snaps, err := a.store.SnapshotsInRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("load snapshots for %s: %w", day.Format("2006-01-02"), err)
	}
	if len(snaps) == 0 {
		a.logger.Warn("no snapshots for day, skipping rollup", "day", day.Format("2006-01-02"))
		metrics.RollupsSkippedTotal.WithLabelValues("no_data").Inc()
		return nil
	}

	rollup := buildRollup(day, snaps)

	if err := a.store.CreateDailyRollup(ctx, rollup); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Raced with another create; the row exists, which is all we wanted.
			metrics.RollupsSkippedTotal.WithLabelValues("exists").Inc()
			return nil
		}
		return fmt.Errorf("create rollup for %s: %w", day.Format("2006-01-02"), err)
	}

	metrics.RollupsCreatedTotal.Inc()
	a.logger.Info("daily rollup created",
		"day", day.Format("2006-01-02"),
		"snapshots", rollup.SnapshotCount,
		"open", rollup.OpenPrice,
		"close", rollup.ClosePrice,
	)

	if a.Notify != nil {
		a.Notify(ctx, rollup)
	}
	return nil
}

// buildRollup derives the day's aggregate. Snapshots arrive ordered by
// capture time, so first/last deltas use insertion order directly. A single
// snapshot yields zero deltas and a flat OHLC, which is valid.
func buildRollup(day time.Time, snaps []store.Snapshot) *store.DailyRollup {
	first := snaps[0]
	last := snaps[len(snaps)-1]

	var volumeSum float64
	high, low := first.TokenPrice, first.TokenPrice
	for _, sn := range snaps {
		volumeSum += sn.Volume24h
		if sn.TokenPrice > high {
			high = sn.TokenPrice
		}
		if sn.TokenPrice < low {
			low = sn.TokenPrice
		}
	}

	return &store.DailyRollup{
		Day:                day,
		AvgVolume:          volumeSum / float64(len(snaps)),
		LastTxCount:        last.TxCount24h,
		HoldersChange:      last.Holders - first.Holders,
		ParticipantsChange: last.Participants - first.Participants,
		TokensSoldChange:   last.TokensSold - first.TokensSold,
		TotalRaisedChange:  last.TotalRaised - first.TotalRaised,
		RewardsChange:      last.RewardsDistributed - first.RewardsDistributed,
		OpenPrice:          first.TokenPrice,
		ClosePrice:         last.TokenPrice,
		HighPrice:          high,
		LowPrice:           low,
		SnapshotCount:      len(snaps),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
