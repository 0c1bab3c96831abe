// Package marketdata defines the collaborator-facing providers for
// candles, live snapshots, and price ticks, plus clients that
// normalize external schemas into domain types.
package marketdata

import (
	"context"
	"errors"

	"solana-trading-core/internal/domain"
)

// Provider errors. ErrRateLimited tells callers to back off and retry
// rather than fail the run; other errors skip the affected unit of
// work.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrNoData      = errors.New("provider returned no data")
)

// CandleProvider fetches candle series keyed by pool/asset, interval,
// and time range. Candles come back oldest-first with millisecond
// timestamps.
type CandleProvider interface {
	FetchCandles(ctx context.Context, asset, interval string, startMs, endMs int64) ([]domain.Candle, error)
}

// SnapshotProvider fetches a live token snapshot, normalized from the
// provider's own schema before the gate ever sees it.
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, mint string) (domain.TokenSnapshot, error)
}

// Tick is one live price update for an asset.
type Tick struct {
	Mint  string
	Price float64
	AtMs  int64
}

// TickStream delivers asynchronous price updates.
type TickStream interface {
	// Subscribe returns a channel of ticks for the given mints. The
	// channel closes when ctx is cancelled or the stream shuts down.
	Subscribe(ctx context.Context, mints []string) (<-chan Tick, error)

	// Close shuts the stream down.
	Close() error
}
