package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// DecisionStore implements storage.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *Pool
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(pool *Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

const decisionColumns = `
	decision_id, mint, symbol, asset_class, action, reason,
	multiplier, liquidity_bonus, tx_depth_bonus, agreement_bonus,
	pump_penalty, buy_sell_penalty, pump_warn_penalty,
	flags, strategy_id, decided_at_ms
`

// Insert appends a decision record. Returns ErrDuplicateKey if the ID exists.
func (s *DecisionStore) Insert(ctx context.Context, d *domain.Decision) error {
	query := `
		INSERT INTO gate_decisions (` + decisionColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16
		)
	`

	_, err := s.pool.Exec(ctx, query,
		d.ID, d.Mint, d.Symbol, int(d.AssetClass), string(d.Action), d.Reason,
		d.Multiplier, d.Factors.LiquidityBonus, d.Factors.TxDepthBonus, d.Factors.AgreementBonus,
		d.Factors.PumpPenalty, d.Factors.BuySellPenalty, d.Factors.PumpWarnPenalty,
		d.Flags, d.StrategyID, d.DecidedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetByMint retrieves all decisions for a mint, ordered by decision time ASC.
func (s *DecisionStore) GetByMint(ctx context.Context, mint string) ([]*domain.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM gate_decisions
		WHERE mint = $1
		ORDER BY decided_at_ms ASC, decision_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get decisions by mint: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetByTimeRange retrieves decisions made within [start, end] (inclusive).
func (s *DecisionStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM gate_decisions
		WHERE decided_at_ms >= $1 AND decided_at_ms <= $2
		ORDER BY decided_at_ms ASC, decision_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get decisions by time range: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

func scanDecision(row pgx.Row) (*domain.Decision, error) {
	var (
		d          domain.Decision
		assetClass int
		action     string
	)

	err := row.Scan(
		&d.ID, &d.Mint, &d.Symbol, &assetClass, &action, &d.Reason,
		&d.Multiplier, &d.Factors.LiquidityBonus, &d.Factors.TxDepthBonus, &d.Factors.AgreementBonus,
		&d.Factors.PumpPenalty, &d.Factors.BuySellPenalty, &d.Factors.PumpWarnPenalty,
		&d.Flags, &d.StrategyID, &d.DecidedAtMs,
	)
	if err != nil {
		return nil, err
	}

	d.AssetClass = domain.AssetClass(assetClass)
	d.Action = domain.DecisionAction(action)
	return &d, nil
}

func scanDecisions(rows pgx.Rows) ([]*domain.Decision, error) {
	var decisions []*domain.Decision

	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return decisions, nil
}
