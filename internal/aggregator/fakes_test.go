package aggregator

import (
	"context"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

// fakeStore implements SnapshotStore in memory for tests.
type fakeStore struct {
	snapshots []store.Snapshot
	rollups   map[string]*store.DailyRollup
	metrics   map[string][]store.MetricRecord

	appendSnapErr   error
	rangeErr        error
	rollupErr       error
	createErr       error
	latestErr       error
	appendMetricErr map[string]error

	createCalls   int
	deleteErr     error
	archiveErr    error
	deleteCutoff  time.Time
	archiveCutoff time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rollups: make(map[string]*store.DailyRollup),
		metrics: make(map[string][]store.MetricRecord),
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (f *fakeStore) AppendSnapshot(_ context.Context, snap *store.Snapshot) error {
	if f.appendSnapErr != nil {
		return f.appendSnapErr
	}
	snap.ID = int64(len(f.snapshots) + 1)
	f.snapshots = append(f.snapshots, *snap)
	return nil
}

func (f *fakeStore) SnapshotsInRange(_ context.Context, start, end time.Time) ([]store.Snapshot, error) {
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	var out []store.Snapshot
	for _, sn := range f.snapshots {
		if !sn.CapturedAt.Before(start) && sn.CapturedAt.Before(end) {
			out = append(out, sn)
		}
	}
	return out, nil
}

func (f *fakeStore) DailyRollup(_ context.Context, day time.Time) (*store.DailyRollup, error) {
	if f.rollupErr != nil {
		return nil, f.rollupErr
	}
	return f.rollups[dayKey(day)], nil
}

func (f *fakeStore) CreateDailyRollup(_ context.Context, r *store.DailyRollup) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.rollups[dayKey(r.Day)]; exists {
		return store.ErrDuplicate
	}
	cp := *r
	f.rollups[dayKey(r.Day)] = &cp
	return nil
}

func (f *fakeStore) LatestMetric(_ context.Context, name string) (*store.MetricRecord, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	records := f.metrics[name]
	if len(records) == 0 {
		return nil, nil
	}
	latest := records[len(records)-1]
	return &latest, nil
}

func (f *fakeStore) AppendMetric(_ context.Context, m *store.MetricRecord) error {
	if err := f.appendMetricErr[m.Name]; err != nil {
		return err
	}
	m.ID = int64(len(f.metrics[m.Name]) + 1)
	f.metrics[m.Name] = append(f.metrics[m.Name], *m)
	return nil
}

// DeleteSnapshotsBefore mirrors the store's strict older-than delete:
// snapshots captured exactly at the cutoff survive.
func (f *fakeStore) DeleteSnapshotsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleteCutoff = cutoff
	var kept []store.Snapshot
	var deleted int64
	for _, sn := range f.snapshots {
		if sn.CapturedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, sn)
	}
	f.snapshots = kept
	return deleted, nil
}

// ArchiveMetricsBefore flips is_public on records strictly older than the
// cutoff, same as the store's UPDATE.
func (f *fakeStore) ArchiveMetricsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if f.archiveErr != nil {
		return 0, f.archiveErr
	}
	f.archiveCutoff = cutoff
	var archived int64
	for name, records := range f.metrics {
		for i := range records {
			if records[i].IsPublic && records[i].RecordedAt.Before(cutoff) {
				records[i].IsPublic = false
				archived++
			}
		}
		f.metrics[name] = records
	}
	return archived, nil
}

// fakeSource implements source.Source with canned readings.
type fakeSource struct {
	name string
	vals map[string]float64
	err  error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Read(context.Context) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vals, nil
}
