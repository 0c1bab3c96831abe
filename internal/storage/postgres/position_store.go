package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, mint, symbol, asset_class, source, strategy_id,
	entry_price, current_price, quantity, committed,
	pnl_pct, pnl_abs, high_water_pct,
	stop_loss_pct, take_profit_pct, trailing_stop_pct,
	on_chain_exits, status, exit_reason, tx_signature,
	reconciled, reconcile_reason,
	entered_at_ms, closed_at_ms
`

// Insert adds a new position. Returns ErrDuplicateKey if the ID exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	query := `
		INSERT INTO positions (` + positionColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16,
			$17, $18, $19, $20,
			$21, $22,
			$23, $24
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Mint, p.Symbol, int(p.AssetClass), string(p.Source), p.StrategyID,
		p.EntryPrice, p.CurrentPrice, p.Quantity, p.Committed,
		p.PnLPct, p.PnLAbs, p.HighWaterPct,
		p.StopLossPct, p.TakeProfitPct, p.TrailingStopPct,
		p.OnChainExits, string(p.Status), p.ExitReason, p.TxSignature,
		p.Reconciled, string(p.ReconcileReason),
		p.EnteredAtMs, p.ClosedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// Update replaces the stored record for an existing position.
func (s *PositionStore) Update(ctx context.Context, p *domain.Position) error {
	query := `
		UPDATE positions SET
			mint = $2, symbol = $3, asset_class = $4, source = $5, strategy_id = $6,
			entry_price = $7, current_price = $8, quantity = $9, committed = $10,
			pnl_pct = $11, pnl_abs = $12, high_water_pct = $13,
			stop_loss_pct = $14, take_profit_pct = $15, trailing_stop_pct = $16,
			on_chain_exits = $17, status = $18, exit_reason = $19, tx_signature = $20,
			reconciled = $21, reconcile_reason = $22,
			entered_at_ms = $23, closed_at_ms = $24
		WHERE position_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Mint, p.Symbol, int(p.AssetClass), string(p.Source), p.StrategyID,
		p.EntryPrice, p.CurrentPrice, p.Quantity, p.Committed,
		p.PnLPct, p.PnLAbs, p.HighWaterPct,
		p.StopLossPct, p.TakeProfitPct, p.TrailingStopPct,
		p.OnChainExits, string(p.Status), p.ExitReason, p.TxSignature,
		p.Reconciled, string(p.ReconcileReason),
		p.EnteredAtMs, p.ClosedAtMs,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, positionID string) (*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE position_id = $1`

	row := s.pool.QueryRow(ctx, query, positionID)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetOpen retrieves all open positions, ordered by entry time ASC.
func (s *PositionStore) GetOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY entered_at_ms ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(domain.StatusOpen))
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetByMint retrieves all positions for a mint, ordered by entry time ASC.
func (s *PositionStore) GetByMint(ctx context.Context, mint string) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE mint = $1
		ORDER BY entered_at_ms ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get positions by mint: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetByTimeRange retrieves positions entered within [start, end] (inclusive).
func (s *PositionStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE entered_at_ms >= $1 AND entered_at_ms <= $2
		ORDER BY entered_at_ms ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get positions by time range: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var (
		p               domain.Position
		assetClass      int
		source          string
		status          string
		reconcileReason string
	)

	err := row.Scan(
		&p.ID, &p.Mint, &p.Symbol, &assetClass, &source, &p.StrategyID,
		&p.EntryPrice, &p.CurrentPrice, &p.Quantity, &p.Committed,
		&p.PnLPct, &p.PnLAbs, &p.HighWaterPct,
		&p.StopLossPct, &p.TakeProfitPct, &p.TrailingStopPct,
		&p.OnChainExits, &status, &p.ExitReason, &p.TxSignature,
		&p.Reconciled, &reconcileReason,
		&p.EnteredAtMs, &p.ClosedAtMs,
	)
	if err != nil {
		return nil, err
	}

	p.AssetClass = domain.AssetClass(assetClass)
	p.Source = domain.EntrySource(source)
	p.Status = domain.PositionStatus(status)
	p.ReconcileReason = domain.ReconcileReason(reconcileReason)
	return &p, nil
}

// scanPositions scans multiple rows into a slice of Position.
func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
