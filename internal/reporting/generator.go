// Package reporting turns tuning runs into persisted artifacts: a
// markdown summary for humans and a JSON payload for machines, both
// keyed by run ID.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
	"solana-trading-core/internal/tuner"
)

// profitFactorCap bounds the serialized profit factor. A run with no
// losing trades yields +Inf, which JSON cannot carry.
const profitFactorCap = 1000.0

// Generator builds and persists tuning report artifacts.
type Generator struct {
	store storage.TuningReportStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.TuningReportStore) *Generator {
	return &Generator{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report artifact for a tuning run and persists
// it. Returns the stored report.
func (g *Generator) Generate(ctx context.Context, res *tuner.Result) (*domain.TuningReport, error) {
	if res == nil {
		return nil, storage.ErrInvalidInput
	}

	payload := buildPayload(res, g.now().UnixMilli())
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal report payload: %w", err)
	}

	report := &domain.TuningReport{
		RunID:           res.RunID,
		SignalKind:      res.SignalKind,
		Selected:        res.Selected,
		LowConfidence:   res.LowConfidence,
		SummaryMarkdown: RenderMarkdown(res),
		PayloadJSON:     raw,
		GeneratedAtMs:   payload.GeneratedAtMs,
	}

	if err := g.store.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("persist tuning report: %w", err)
	}
	return report, nil
}

func buildPayload(res *tuner.Result, generatedAtMs int64) Payload {
	return Payload{
		RunID:         res.RunID,
		SignalKind:    res.SignalKind,
		Selected:      configRow(res.Selected),
		LowConfidence: res.LowConfidence,
		Stage1:        metricRows(res.Stage1),
		Stage2:        metricRows(res.Stage2),
		DatasetHashes: res.DatasetHashes,
		SkippedAssets: res.SkippedAssets,
		GeneratedAtMs: generatedAtMs,
	}
}

func configRow(cfg domain.StrategyConfig) ConfigRow {
	return ConfigRow{
		ConfigID:        cfg.ID(),
		StopLossPct:     cfg.StopLossPct,
		TakeProfitPct:   cfg.TakeProfitPct,
		TrailingStopPct: cfg.TrailingStopPct,
		MaxHoldCandles:  cfg.MaxHoldCandles,
		SlippagePct:     cfg.SlippagePct,
		FeePct:          cfg.FeePct,
	}
}

func metricRows(cells []tuner.CellMetrics) []MetricRow {
	rows := make([]MetricRow, 0, len(cells))
	for _, c := range cells {
		pf := c.ProfitFactor
		if math.IsInf(pf, 1) || pf > profitFactorCap {
			pf = profitFactorCap
		}
		rows = append(rows, MetricRow{
			ConfigID:       c.Config.ID(),
			TotalTrades:    c.TotalTrades,
			WinRate:        c.WinRate,
			Expectancy:     c.Expectancy,
			AvgReturnPct:   c.AvgReturnPct,
			ProfitFactor:   pf,
			MaxDrawdownPct: c.MaxDrawdownPct,
			SharpeRatio:    c.SharpeRatio,
			AssetsCovered:  c.AssetsCovered,
		})
	}
	return rows
}
