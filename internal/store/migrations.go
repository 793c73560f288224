package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id BIGSERIAL PRIMARY KEY,
    captured_at TIMESTAMPTZ NOT NULL,
    volume_24h DOUBLE PRECISION NOT NULL DEFAULT 0,
    tx_count_24h BIGINT NOT NULL DEFAULT 0,
    holders BIGINT NOT NULL DEFAULT 0,
    participants BIGINT NOT NULL DEFAULT 0,
    tokens_sold DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_raised DOUBLE PRECISION NOT NULL DEFAULT 0,
    token_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    rewards_distributed DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON snapshots (captured_at);

CREATE TABLE IF NOT EXISTS daily_rollups (
    id BIGSERIAL PRIMARY KEY,
    day DATE NOT NULL UNIQUE,
    avg_volume DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_tx_count BIGINT NOT NULL DEFAULT 0,
    holders_change BIGINT NOT NULL DEFAULT 0,
    participants_change BIGINT NOT NULL DEFAULT 0,
    tokens_sold_change DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_raised_change DOUBLE PRECISION NOT NULL DEFAULT 0,
    rewards_change DOUBLE PRECISION NOT NULL DEFAULT 0,
    open_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    close_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    high_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    low_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    snapshot_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metric_records (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT 'general',
    value DOUBLE PRECISION NOT NULL,
    unit TEXT NOT NULL DEFAULT '',
    recorded_at TIMESTAMPTZ NOT NULL,
    previous_value DOUBLE PRECISION,
    change_pct DOUBLE PRECISION,
    is_public BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_metric_records_name_time ON metric_records (name, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_metric_records_public ON metric_records (is_public, recorded_at DESC);

CREATE TABLE IF NOT EXISTS purchase_events (
    id BIGSERIAL PRIMARY KEY,
    wallet TEXT NOT NULL,
    token_amount DOUBLE PRECISION NOT NULL,
    usd_value DOUBLE PRECISION NOT NULL,
    tx_hash TEXT NOT NULL UNIQUE,
    event_time TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchase_events_time ON purchase_events (event_time);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
