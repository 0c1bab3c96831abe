package storage

import (
	"context"

	"solana-trading-core/internal/domain"
)

// PositionStore provides access to positions storage.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, p *domain.Position) error

	// Update replaces the stored record for an existing position.
	// Returns ErrNotFound if the ID does not exist.
	Update(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, positionID string) (*domain.Position, error)

	// GetOpen retrieves all open positions, ordered by entry time ASC.
	GetOpen(ctx context.Context) ([]*domain.Position, error)

	// GetByMint retrieves all positions for a mint, ordered by entry time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.Position, error)

	// GetByTimeRange retrieves positions entered within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Position, error)
}

// DecisionStore provides access to the entry-gate decision log.
type DecisionStore interface {
	// Insert appends a decision record. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, d *domain.Decision) error

	// GetByMint retrieves all decisions for a mint, ordered by evaluation time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.Decision, error)

	// GetByTimeRange retrieves decisions evaluated within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Decision, error)
}

// TuningReportStore provides access to persisted tuning run artifacts.
type TuningReportStore interface {
	// Insert adds a report. Returns ErrDuplicateKey if the run ID exists.
	Insert(ctx context.Context, r *domain.TuningReport) error

	// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.TuningReport, error)

	// GetLatest retrieves the most recently generated report for a signal kind.
	// Returns ErrNotFound if no report exists for the kind.
	GetLatest(ctx context.Context, signalKind string) (*domain.TuningReport, error)
}

// CandleStore provides access to historical candle storage.
type CandleStore interface {
	// InsertBulk adds candles for an asset/interval pair. Fails the entire
	// batch on any duplicate (asset, interval, timestamp_ms).
	InsertBulk(ctx context.Context, asset, interval string, candles []domain.Candle) error

	// GetByAsset retrieves all candles for an asset/interval, ordered by timestamp ASC.
	GetByAsset(ctx context.Context, asset, interval string) ([]domain.Candle, error)

	// GetByTimeRange retrieves candles within [start, end] (inclusive, ms).
	GetByTimeRange(ctx context.Context, asset, interval string, start, end int64) ([]domain.Candle, error)
}
