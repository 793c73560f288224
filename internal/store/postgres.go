package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint,
// e.g. a second rollup for the same day.
var ErrDuplicate = errors.New("duplicate key")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Snapshots ---

// Snapshot is a point-in-time capture of platform metrics. Snapshots are
// append-only; the retention pass is the only thing that removes them.
type Snapshot struct {
	ID                 int64     `json:"id"`
	CapturedAt         time.Time `json:"captured_at"`
	Volume24h          float64   `json:"volume_24h"`
	TxCount24h         int64     `json:"tx_count_24h"`
	Holders            int64     `json:"holders"`
	Participants       int64     `json:"participants"`
	TokensSold         float64   `json:"tokens_sold"`
	TotalRaised        float64   `json:"total_raised"`
	TokenPrice         float64   `json:"token_price"`
	RewardsDistributed float64   `json:"rewards_distributed"`
}

func (s *Store) AppendSnapshot(ctx context.Context, snap *Snapshot) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO snapshots (captured_at, volume_24h, tx_count_24h, holders, participants,
			tokens_sold, total_raised, token_price, rewards_distributed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		snap.CapturedAt, snap.Volume24h, snap.TxCount24h, snap.Holders, snap.Participants,
		snap.TokensSold, snap.TotalRaised, snap.TokenPrice, snap.RewardsDistributed).
		Scan(&snap.ID)
}

// SnapshotsInRange returns snapshots with captured_at in [start, end),
// ordered oldest first.
func (s *Store) SnapshotsInRange(ctx context.Context, start, end time.Time) ([]Snapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, captured_at, volume_24h, tx_count_24h, holders, participants,
			tokens_sold, total_raised, token_price, rewards_distributed
		FROM snapshots
		WHERE captured_at >= $1 AND captured_at < $2
		ORDER BY captured_at, id`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(&sn.ID, &sn.CapturedAt, &sn.Volume24h, &sn.TxCount24h, &sn.Holders,
			&sn.Participants, &sn.TokensSold, &sn.TotalRaised, &sn.TokenPrice, &sn.RewardsDistributed); err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var sn Snapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, captured_at, volume_24h, tx_count_24h, holders, participants,
			tokens_sold, total_raised, token_price, rewards_distributed
		FROM snapshots
		ORDER BY captured_at DESC, id DESC
		LIMIT 1`).
		Scan(&sn.ID, &sn.CapturedAt, &sn.Volume24h, &sn.TxCount24h, &sn.Holders,
			&sn.Participants, &sn.TokensSold, &sn.TotalRaised, &sn.TokenPrice, &sn.RewardsDistributed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sn, nil
}

// DeleteSnapshotsBefore hard-deletes snapshots strictly older than cutoff.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE captured_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Daily rollups ---

// DailyRollup is the once-per-day aggregate derived from that day's
// snapshots. At most one row exists per day; the unique constraint on day
// makes a second create fail instead of overwriting.
type DailyRollup struct {
	ID                int64     `json:"id"`
	Day               time.Time `json:"day"`
	AvgVolume         float64   `json:"avg_volume"`
	LastTxCount       int64     `json:"last_tx_count"`
	HoldersChange     int64     `json:"holders_change"`
	ParticipantsChange int64    `json:"participants_change"`
	TokensSoldChange  float64   `json:"tokens_sold_change"`
	TotalRaisedChange float64   `json:"total_raised_change"`
	RewardsChange     float64   `json:"rewards_change"`
	OpenPrice         float64   `json:"open_price"`
	ClosePrice        float64   `json:"close_price"`
	HighPrice         float64   `json:"high_price"`
	LowPrice          float64   `json:"low_price"`
	SnapshotCount     int       `json:"snapshot_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// DailyRollup returns the rollup for a day, or (nil, nil) when none exists.
func (s *Store) DailyRollup(ctx context.Context, day time.Time) (*DailyRollup, error) {
	var r DailyRollup
	err := s.pool.QueryRow(ctx, `
		SELECT id, day, avg_volume, last_tx_count, holders_change, participants_change,
			tokens_sold_change, total_raised_change, rewards_change,
			open_price, close_price, high_price, low_price, snapshot_count, created_at
		FROM daily_rollups WHERE day = $1`, day).
		Scan(&r.ID, &r.Day, &r.AvgVolume, &r.LastTxCount, &r.HoldersChange, &r.ParticipantsChange,
			&r.TokensSoldChange, &r.TotalRaisedChange, &r.RewardsChange,
			&r.OpenPrice, &r.ClosePrice, &r.HighPrice, &r.LowPrice, &r.SnapshotCount, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateDailyRollup inserts a rollup. Returns ErrDuplicate if one already
// exists for that day.
func (s *Store) CreateDailyRollup(ctx context.Context, r *DailyRollup) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO daily_rollups (day, avg_volume, last_tx_count, holders_change, participants_change,
			tokens_sold_change, total_raised_change, rewards_change,
			open_price, close_price, high_price, low_price, snapshot_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`,
		r.Day, r.AvgVolume, r.LastTxCount, r.HoldersChange, r.ParticipantsChange,
		r.TokensSoldChange, r.TotalRaisedChange, r.RewardsChange,
		r.OpenPrice, r.ClosePrice, r.HighPrice, r.LowPrice, r.SnapshotCount).
		Scan(&r.ID, &r.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) RollupsInRange(ctx context.Context, from, to time.Time) ([]DailyRollup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, day, avg_volume, last_tx_count, holders_change, participants_change,
			tokens_sold_change, total_raised_change, rewards_change,
			open_price, close_price, high_price, low_price, snapshot_count, created_at
		FROM daily_rollups
		WHERE day >= $1 AND day <= $2
		ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []DailyRollup
	for rows.Next() {
		var r DailyRollup
		if err := rows.Scan(&r.ID, &r.Day, &r.AvgVolume, &r.LastTxCount, &r.HoldersChange,
			&r.ParticipantsChange, &r.TokensSoldChange, &r.TotalRaisedChange, &r.RewardsChange,
			&r.OpenPrice, &r.ClosePrice, &r.HighPrice, &r.LowPrice, &r.SnapshotCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

// --- Metric records ---

// MetricRecord is a named, categorized measurement with change tracking
// against the most recent prior record of the same name. PreviousValue and
// ChangePct are nil when there is no usable prior record; nil and zero are
// distinct states.
type MetricRecord struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Value         float64   `json:"value"`
	Unit          string    `json:"unit"`
	RecordedAt    time.Time `json:"recorded_at"`
	PreviousValue *float64  `json:"previous_value,omitempty"`
	ChangePct     *float64  `json:"change_pct,omitempty"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     time.Time `json:"created_at"`
}

// LatestMetric returns the most recent record for a name, or (nil, nil)
// when the name has never been recorded.
func (s *Store) LatestMetric(ctx context.Context, name string) (*MetricRecord, error) {
	var m MetricRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, category, value, unit, recorded_at, previous_value, change_pct, is_public, created_at
		FROM metric_records
		WHERE name = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`, name).
		Scan(&m.ID, &m.Name, &m.Category, &m.Value, &m.Unit, &m.RecordedAt,
			&m.PreviousValue, &m.ChangePct, &m.IsPublic, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) AppendMetric(ctx context.Context, m *MetricRecord) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO metric_records (name, category, value, unit, recorded_at, previous_value, change_pct, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		m.Name, m.Category, m.Value, m.Unit, m.RecordedAt, m.PreviousValue, m.ChangePct, m.IsPublic).
		Scan(&m.ID, &m.CreatedAt)
}

// PublicMetrics returns public records, optionally filtered by name and
// category, newest first.
func (s *Store) PublicMetrics(ctx context.Context, name, category string, limit int) ([]MetricRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, value, unit, recorded_at, previous_value, change_pct, is_public, created_at
		FROM metric_records
		WHERE is_public = true
			AND ($1 = '' OR name = $1)
			AND ($2 = '' OR category = $2)
		ORDER BY recorded_at DESC, id DESC
		LIMIT $3`, name, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MetricRecord
	for rows.Next() {
		var m MetricRecord
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Value, &m.Unit, &m.RecordedAt,
			&m.PreviousValue, &m.ChangePct, &m.IsPublic, &m.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// ArchiveMetricsBefore flips records strictly older than cutoff to private.
// Archived records stay queryable internally but drop out of public reads.
func (s *Store) ArchiveMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE metric_records SET is_public = false
		WHERE recorded_at < $1 AND is_public = true`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Purchase events ---

// PurchaseEvent is a single presale purchase observed on the event stream.
type PurchaseEvent struct {
	ID          int64     `json:"id"`
	Wallet      string    `json:"wallet"`
	TokenAmount float64   `json:"token_amount"`
	USDValue    float64   `json:"usd_value"`
	TxHash      string    `json:"tx_hash"`
	EventTime   time.Time `json:"event_time"`
}

// InsertPurchaseEvents batch-inserts purchase events in one transaction.
func (s *Store) InsertPurchaseEvents(ctx context.Context, events []PurchaseEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, e := range events {
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_events (wallet, token_amount, usd_value, tx_hash, event_time)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tx_hash) DO NOTHING`,
			e.Wallet, e.TokenAmount, e.USDValue, e.TxHash, e.EventTime)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) RecentPurchases(ctx context.Context, limit int) ([]PurchaseEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, wallet, token_amount, usd_value, tx_hash, event_time
		FROM purchase_events
		ORDER BY event_time DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PurchaseEvent
	for rows.Next() {
		var e PurchaseEvent
		if err := rows.Scan(&e.ID, &e.Wallet, &e.TokenAmount, &e.USDValue, &e.TxHash, &e.EventTime); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) DeletePurchasesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM purchase_events WHERE event_time < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Pool exposes the underlying connection pool for use by other packages.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}
