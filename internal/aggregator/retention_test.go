package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

func TestCleanup(t *testing.T) {
	f := newFakeStore()
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	snapCutoff := now.Add(-90 * 24 * time.Hour)
	metricCutoff := now.Add(-365 * 24 * time.Hour)

	f.snapshots = []store.Snapshot{
		{ID: 1, CapturedAt: snapCutoff.Add(-48 * time.Hour)},
		{ID: 2, CapturedAt: snapCutoff.Add(-time.Second)},
		{ID: 3, CapturedAt: snapCutoff},
		{ID: 4, CapturedAt: snapCutoff.Add(time.Hour)},
	}
	f.metrics["holders"] = []store.MetricRecord{
		{ID: 1, Name: "holders", RecordedAt: metricCutoff.Add(-time.Hour), IsPublic: true},
		{ID: 2, Name: "holders", RecordedAt: metricCutoff, IsPublic: true},
		{ID: 3, Name: "holders", RecordedAt: metricCutoff.Add(time.Hour), IsPublic: true},
	}

	r := NewRetention(f, slog.Default(), 90*24*time.Hour, 365*24*time.Hour)
	r.now = func() time.Time { return now }

	deleted, archived, err := r.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if deleted != 2 || archived != 1 {
		t.Errorf("counts = %d/%d, want 2/1", deleted, archived)
	}
	if !f.deleteCutoff.Equal(snapCutoff) {
		t.Errorf("snapshot cutoff = %v, want %v", f.deleteCutoff, snapCutoff)
	}
	if !f.archiveCutoff.Equal(metricCutoff) {
		t.Errorf("metric cutoff = %v, want %v", f.archiveCutoff, metricCutoff)
	}

	// Rows exactly at the cutoff survive; retention is strictly older-than.
	if len(f.snapshots) != 2 || f.snapshots[0].ID != 3 {
		t.Errorf("kept snapshots = %+v, want IDs 3 and 4", f.snapshots)
	}
	if !f.metrics["holders"][1].IsPublic {
		t.Error("metric recorded exactly at cutoff must stay public")
	}
	if f.metrics["holders"][0].IsPublic {
		t.Error("metric older than cutoff must be archived")
	}
	if !f.metrics["holders"][2].IsPublic {
		t.Error("metric newer than cutoff must stay public")
	}
}

func TestCleanupZeroCounts(t *testing.T) {
	f := newFakeStore()
	r := NewRetention(f, slog.Default(), time.Hour, time.Hour)

	deleted, archived, err := r.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if deleted != 0 || archived != 0 {
		t.Errorf("counts = %d/%d, want 0/0", deleted, archived)
	}
}

func TestCleanupDeleteError(t *testing.T) {
	f := newFakeStore()
	f.deleteErr = errors.New("connection reset")
	r := NewRetention(f, slog.Default(), time.Hour, time.Hour)

	if _, _, err := r.Cleanup(context.Background()); err == nil {
		t.Error("Cleanup expected error when delete fails")
	}
}

func TestCleanupArchiveError(t *testing.T) {
	f := newFakeStore()
	old := time.Now().Add(-48 * time.Hour)
	f.snapshots = []store.Snapshot{
		{ID: 1, CapturedAt: old},
		{ID: 2, CapturedAt: old},
		{ID: 3, CapturedAt: old},
	}
	f.archiveErr = errors.New("connection reset")
	r := NewRetention(f, slog.Default(), time.Hour, time.Hour)

	deleted, _, err := r.Cleanup(context.Background())
	if err == nil {
		t.Fatal("Cleanup expected error when archive fails")
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3 even when archiving fails afterwards", deleted)
	}
}
