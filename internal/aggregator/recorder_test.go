package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

func TestRecordFirstEver(t *testing.T) {
	f := newFakeStore()
	r := NewRecorder(f, slog.Default())

	at := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	err := r.Record(context.Background(), Sample{Name: "token_price", Category: "market", Value: 0.042, Unit: "usd", At: at})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	records := f.metrics["token_price"]
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.PreviousValue != nil {
		t.Errorf("PreviousValue = %v, want nil for first record", *rec.PreviousValue)
	}
	if rec.ChangePct != nil {
		t.Errorf("ChangePct = %v, want nil for first record", *rec.ChangePct)
	}
	if !rec.IsPublic {
		t.Error("IsPublic = false, want true by default")
	}
	if !rec.RecordedAt.Equal(at) {
		t.Errorf("RecordedAt = %v, want %v", rec.RecordedAt, at)
	}
}

func TestRecordChangePct(t *testing.T) {
	f := newFakeStore()
	r := NewRecorder(f, slog.Default())
	ctx := context.Background()

	if err := r.Record(ctx, Sample{Name: "holders", Value: 100, At: time.Now()}); err != nil {
		t.Fatalf("first Record error: %v", err)
	}
	if err := r.Record(ctx, Sample{Name: "holders", Value: 150, At: time.Now()}); err != nil {
		t.Fatalf("second Record error: %v", err)
	}

	records := f.metrics["holders"]
	if len(records) != 2 {
		t.Fatalf("record count = %d, want 2", len(records))
	}
	rec := records[1]
	if rec.PreviousValue == nil || *rec.PreviousValue != 100 {
		t.Fatalf("PreviousValue = %v, want 100", rec.PreviousValue)
	}
	if rec.ChangePct == nil || *rec.ChangePct != 50.0 {
		t.Fatalf("ChangePct = %v, want 50.0", rec.ChangePct)
	}
}

func TestRecordZeroPrevious(t *testing.T) {
	f := newFakeStore()
	r := NewRecorder(f, slog.Default())
	ctx := context.Background()

	if err := r.Record(ctx, Sample{Name: "rewards", Value: 0, At: time.Now()}); err != nil {
		t.Fatalf("first Record error: %v", err)
	}
	if err := r.Record(ctx, Sample{Name: "rewards", Value: 500, At: time.Now()}); err != nil {
		t.Fatalf("second Record error: %v", err)
	}

	rec := f.metrics["rewards"][1]
	if rec.PreviousValue == nil || *rec.PreviousValue != 0 {
		t.Fatalf("PreviousValue = %v, want 0", rec.PreviousValue)
	}
	// Division by zero is undefined, not 0%
	if rec.ChangePct != nil {
		t.Errorf("ChangePct = %v, want nil when previous value is zero", *rec.ChangePct)
	}
}

func TestRecordNegativeChange(t *testing.T) {
	f := newFakeStore()
	r := NewRecorder(f, slog.Default())
	ctx := context.Background()

	_ = r.Record(ctx, Sample{Name: "volume_24h", Value: 200, At: time.Now()})
	_ = r.Record(ctx, Sample{Name: "volume_24h", Value: 150, At: time.Now()})

	rec := f.metrics["volume_24h"][1]
	if rec.ChangePct == nil || *rec.ChangePct != -25.0 {
		t.Fatalf("ChangePct = %v, want -25.0", rec.ChangePct)
	}
}

func TestRecordAllIsolatesFailures(t *testing.T) {
	f := newFakeStore()
	f.appendMetricErr = map[string]error{"broken": errors.New("write failed")}
	r := NewRecorder(f, slog.Default())

	at := time.Now()
	r.RecordAll(context.Background(), []Sample{
		{Name: "first", Value: 1, At: at},
		{Name: "broken", Value: 2, At: at},
		{Name: "last", Value: 3, At: at},
	})

	if len(f.metrics["first"]) != 1 {
		t.Error("sample before the failing one was not recorded")
	}
	if len(f.metrics["broken"]) != 0 {
		t.Error("failing sample was recorded")
	}
	if len(f.metrics["last"]) != 1 {
		t.Error("sample after the failing one was not recorded")
	}
}

func TestSnapshotSamples(t *testing.T) {
	snap := &store.Snapshot{
		CapturedAt:         time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
		Volume24h:          1000,
		Holders:            250,
		Participants:       120,
		TokensSold:         5_000_000,
		TotalRaised:        210_000,
		TokenPrice:         0.042,
		RewardsDistributed: 777,
	}

	samples := SnapshotSamples(snap)
	if len(samples) != 7 {
		t.Fatalf("sample count = %d, want 7", len(samples))
	}
	byName := make(map[string]Sample, len(samples))
	for _, s := range samples {
		byName[s.Name] = s
		if !s.At.Equal(snap.CapturedAt) {
			t.Errorf("sample %s At = %v, want %v", s.Name, s.At, snap.CapturedAt)
		}
	}
	if byName["token_price"].Value != 0.042 {
		t.Errorf("token_price = %v, want 0.042", byName["token_price"].Value)
	}
	if byName["holders"].Value != 250 {
		t.Errorf("holders = %v, want 250", byName["holders"].Value)
	}
	if byName["total_raised"].Unit != "usd" {
		t.Errorf("total_raised unit = %q, want usd", byName["total_raised"].Unit)
	}
}
