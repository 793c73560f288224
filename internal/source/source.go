package source

import (
	"context"
	"fmt"
)

// Quantity names shared between sources, snapshots and recorded metrics.
const (
	QtyTokenPrice         = "token_price"
	QtyVolume24h          = "volume_24h"
	QtyTxCount24h         = "tx_count_24h"
	QtyHolders            = "holders"
	QtyParticipants       = "participants"
	QtyTokensSold         = "tokens_sold"
	QtyTotalRaised        = "total_raised"
	QtyRewardsDistributed = "rewards_distributed"
)

// Source supplies current values for the subset of tracked quantities it
// knows about. Reads are side-effect free and may fail transiently; the
// caller retries on its next cycle, never inline.
type Source interface {
	// Name returns a unique identifier for this source (e.g., "market").
	Name() string

	// Read fetches the current quantity values from the source.
	Read(ctx context.Context) (map[string]float64, error)
}

// TransientError marks a read failure as temporary (network, RPC, upstream
// API). It wraps the underlying error.
type TransientError struct {
	Source string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func transient(name string, err error) error {
	return &TransientError{Source: name, Err: err}
}
