package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tokenforge/sale-analytics/internal/metrics"
)

// Retention enforces the data aging policy: snapshots strictly older than
// the short-term window are hard-deleted, metric records strictly older than
// the long-term window are archived (flipped private, never deleted).
type Retention struct {
	store       SnapshotStore
	logger      *slog.Logger
	snapshotTTL time.Duration
	metricTTL   time.Duration
	now         func() time.Time
}

func NewRetention(s SnapshotStore, logger *slog.Logger, snapshotTTL, metricTTL time.Duration) *Retention {
	return &Retention{
		store:       s,
		logger:      logger,
		snapshotTTL: snapshotTTL,
		metricTTL:   metricTTL,
		now:         time.Now,
	}
}

// Cleanup runs one retention pass and returns the number of snapshots
// deleted and metric records archived. Zero counts are normal.
func (r *Retention) Cleanup(ctx context.Context) (int64, int64, error) {
	now := r.now().UTC()

	deleted, err := r.store.DeleteSnapshotsBefore(ctx, now.Add(-r.snapshotTTL))
	if err != nil {
		return 0, 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	metrics.SnapshotsDeletedTotal.Add(float64(deleted))

	archived, err := r.store.ArchiveMetricsBefore(ctx, now.Add(-r.metricTTL))
	if err != nil {
		return deleted, 0, fmt.Errorf("archive old metrics: %w", err)
	}
	metrics.MetricsArchivedTotal.Add(float64(archived))

	if deleted > 0 || archived > 0 {
		r.logger.Info("retention pass completed", "snapshots_deleted", deleted, "metrics_archived", archived)
	}
	return deleted, archived, nil
}
