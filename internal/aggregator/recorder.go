package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokenforge/sale-analytics/internal/source"
	"github.com/tokenforge/sale-analytics/internal/store"
)

// Sample is a single measurement to be recorded with change tracking.
type Sample struct {
	Name     string
	Category string
	Value    float64
	Unit     string
	At       time.Time
}

// Recorder appends metric records, computing each record's percentage change
// against the most recent prior record of the same name.
type Recorder struct {
	store  SnapshotStore
	logger *slog.Logger
}

func NewRecorder(s SnapshotStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

// Record persists one sample. ChangePct stays nil when there is no prior
// record or the prior value is zero; nil means "unknown", which is not the
// same as a 0% change.
func (r *Recorder) Record(ctx context.Context, s Sample) error {
	prev, err := r.store.LatestMetric(ctx, s.Name)
	if err != nil {
		return fmt.Errorf("lookup previous %s: %w", s.Name, err)
	}

	rec := &store.MetricRecord{
		Name:       s.Name,
		Category:   s.Category,
		Value:      s.Value,
		Unit:       s.Unit,
		RecordedAt: s.At,
		IsPublic:   true,
	}
	if prev != nil {
		pv := prev.Value
		rec.PreviousValue = &pv
		if prev.Value != 0 {
			pct := (s.Value - prev.Value) / prev.Value * 100
			rec.ChangePct = &pct
		}
	}

	if err := r.store.AppendMetric(ctx, rec); err != nil {
		return fmt.Errorf("append %s: %w", s.Name, err)
	}
	return nil
}

// RecordAll records each sample independently; one sample's failure is
// logged and does not block its siblings.
func (r *Recorder) RecordAll(ctx context.Context, samples []Sample) {
	for _, s := range samples {
		if err := r.Record(ctx, s); err != nil {
			r.logger.Error("record metric failed", "metric", s.Name, "error", err)
		}
	}
}

// SnapshotSamples derives the platform KPI samples from a snapshot.
func SnapshotSamples(snap *store.Snapshot) []Sample {
	at := snap.CapturedAt
	return []Sample{
		{Name: source.QtyTokenPrice, Category: "market", Value: snap.TokenPrice, Unit: "usd", At: at},
		{Name: source.QtyVolume24h, Category: "market", Value: snap.Volume24h, Unit: "usd", At: at},
		{Name: source.QtyHolders, Category: "community", Value: float64(snap.Holders), Unit: "wallets", At: at},
		{Name: source.QtyParticipants, Category: "sale", Value: float64(snap.Participants), Unit: "wallets", At: at},
		{Name: source.QtyTokensSold, Category: "sale", Value: snap.TokensSold, Unit: "tokens", At: at},
		{Name: source.QtyTotalRaised, Category: "sale", Value: snap.TotalRaised, Unit: "usd", At: at},
		{Name: source.QtyRewardsDistributed, Category: "rewards", Value: snap.RewardsDistributed, Unit: "tokens", At: at},
	}
}
