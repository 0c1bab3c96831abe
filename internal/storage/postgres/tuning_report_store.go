package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// TuningReportStore implements storage.TuningReportStore using PostgreSQL.
type TuningReportStore struct {
	pool *Pool
}

// NewTuningReportStore creates a new TuningReportStore.
func NewTuningReportStore(pool *Pool) *TuningReportStore {
	return &TuningReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TuningReportStore = (*TuningReportStore)(nil)

const tuningReportColumns = `
	run_id, signal_kind, low_confidence,
	stop_loss_pct, take_profit_pct, trailing_stop_pct, max_hold_candles,
	slippage_pct, fee_pct,
	summary_markdown, payload_json, generated_at_ms
`

// Insert adds a report. Returns ErrDuplicateKey if the run ID exists.
func (s *TuningReportStore) Insert(ctx context.Context, r *domain.TuningReport) error {
	query := `
		INSERT INTO tuning_reports (` + tuningReportColumns + `) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9,
			$10, $11, $12
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.SignalKind, r.LowConfidence,
		r.Selected.StopLossPct, r.Selected.TakeProfitPct, r.Selected.TrailingStopPct, r.Selected.MaxHoldCandles,
		r.Selected.SlippagePct, r.Selected.FeePct,
		r.SummaryMarkdown, r.PayloadJSON, r.GeneratedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert tuning report: %w", err)
	}
	return nil
}

// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
func (s *TuningReportStore) GetByRunID(ctx context.Context, runID string) (*domain.TuningReport, error) {
	query := `SELECT ` + tuningReportColumns + ` FROM tuning_reports WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanTuningReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get tuning report by run id: %w", err)
	}
	return r, nil
}

// GetLatest retrieves the most recently generated report for a signal kind.
func (s *TuningReportStore) GetLatest(ctx context.Context, signalKind string) (*domain.TuningReport, error) {
	query := `
		SELECT ` + tuningReportColumns + `
		FROM tuning_reports
		WHERE signal_kind = $1
		ORDER BY generated_at_ms DESC, run_id DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, signalKind)
	r, err := scanTuningReport(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest tuning report: %w", err)
	}
	return r, nil
}

func scanTuningReport(row pgx.Row) (*domain.TuningReport, error) {
	var r domain.TuningReport

	err := row.Scan(
		&r.RunID, &r.SignalKind, &r.LowConfidence,
		&r.Selected.StopLossPct, &r.Selected.TakeProfitPct, &r.Selected.TrailingStopPct, &r.Selected.MaxHoldCandles,
		&r.Selected.SlippagePct, &r.Selected.FeePct,
		&r.SummaryMarkdown, &r.PayloadJSON, &r.GeneratedAtMs,
	)
	if err != nil {
		return nil, err
	}

	r.Selected.SignalKind = r.SignalKind
	return &r, nil
}
