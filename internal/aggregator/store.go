package aggregator

import (
	"context"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

// SnapshotStore is the persistence surface the aggregation tasks depend on.
// *store.Store satisfies it; tests substitute fakes.
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, snap *store.Snapshot) error
	SnapshotsInRange(ctx context.Context, start, end time.Time) ([]store.Snapshot, error)
	DailyRollup(ctx context.Context, day time.Time) (*store.DailyRollup, error)
	CreateDailyRollup(ctx context.Context, r *store.DailyRollup) error
	LatestMetric(ctx context.Context, name string) (*store.MetricRecord, error)
	AppendMetric(ctx context.Context, m *store.MetricRecord) error
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ArchiveMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
