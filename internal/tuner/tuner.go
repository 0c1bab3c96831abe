// Package tuner drives the simulation engine across a parameter grid
// in two stages: a short-window sanity sweep that cheaply prunes the
// grid, then a long-window stability re-test of the survivors that
// guards against overfitting to a small sample.
package tuner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"solana-trading-core/internal/backtest"
	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/idhash"
	"solana-trading-core/internal/logging"
	"solana-trading-core/internal/marketdata"
)

// Defaults.
const (
	DefaultTopK               = 10
	DefaultMinTrades          = 20
	DefaultStabilityMinTrades = 50
	DefaultConcurrency        = 4
)

// ErrNoViableConfig is returned when no grid cell clears the minimum
// trade threshold in Stage 1.
var ErrNoViableConfig = errors.New("no grid config cleared the minimum trade threshold")

// Window is one candle time range.
type Window struct {
	StartMs int64
	EndMs   int64
}

// Options configures one tuning run.
type Options struct {
	SignalKind string
	Assets     []string
	Interval   string

	SanityWindow    Window // short, Stage 1
	StabilityWindow Window // long, Stage 2

	Grid        Grid
	SlippagePct float64
	FeePct      float64

	TopK               int
	MinTrades          int // Stage 1 viability floor
	StabilityMinTrades int // Stage 2 statistical-confidence bar
	Concurrency        int
}

// CellMetrics holds trade-weighted metrics for one config across the
// asset universe. Each asset's contribution is weighted by its trade
// count, not averaged flat.
type CellMetrics struct {
	Config domain.StrategyConfig

	TotalTrades    int
	WinRate        float64
	Expectancy     float64
	AvgReturnPct   float64
	ProfitFactor   float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	AssetsCovered  int
}

// Result is the outcome of a full two-stage run.
type Result struct {
	RunID      string
	SignalKind string

	Selected        domain.StrategyConfig
	SelectedMetrics CellMetrics

	// LowConfidence marks a winner whose Stage 2 trade count missed
	// the stability threshold. The result is still emitted; confidence
	// is never fabricated.
	LowConfidence bool

	Stage1 []CellMetrics // survivors, ranked
	Stage2 []CellMetrics // final ranking

	// DatasetHashes ties each asset's stability-window candles to the
	// run for provenance.
	DatasetHashes map[string]string

	// SkippedAssets maps assets dropped from the run to the reason.
	SkippedAssets map[string]string

	GeneratedAt time.Time
}

// Tuner selects strategy configs. Read-only over candle data; never
// touches ledger state, so a run aborted between grid cells leaves
// nothing to clean up.
type Tuner struct {
	engine   *backtest.Engine
	provider marketdata.CandleProvider
	log      *logrus.Entry
	now      func() time.Time
}

// New creates a tuner over the given candle provider.
func New(provider marketdata.CandleProvider) *Tuner {
	return &Tuner{
		engine:   backtest.NewEngine(),
		provider: provider,
		log:      logging.L().WithField("component", "tuner"),
		now:      time.Now,
	}
}

// WithClock sets a custom clock, for deterministic report output.
func (t *Tuner) WithClock(now func() time.Time) *Tuner {
	t.now = now
	return t
}

// Run executes both stages and returns the selected config.
func (t *Tuner) Run(ctx context.Context, opts Options) (*Result, error) {
	applyDefaults(&opts)
	if len(opts.Assets) == 0 {
		return nil, errors.New("no assets in universe")
	}

	res := &Result{
		RunID:         uuid.NewString(),
		SignalKind:    opts.SignalKind,
		DatasetHashes: make(map[string]string),
		SkippedAssets: make(map[string]string),
		GeneratedAt:   t.now().UTC(),
	}

	// Stage 1: sanity sweep on the short window.
	sanity := t.fetchUniverse(ctx, opts, opts.SanityWindow, res.SkippedAssets)
	if len(sanity) == 0 {
		return nil, errors.New("no asset produced sanity-window candles")
	}

	configs := opts.Grid.Configs(opts.SignalKind, opts.SlippagePct, opts.FeePct)
	cells, err := t.evaluate(ctx, configs, sanity, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	viable := cells[:0]
	for _, c := range cells {
		if c.TotalTrades >= opts.MinTrades {
			viable = append(viable, c)
		}
	}
	if len(viable) == 0 {
		return nil, ErrNoViableConfig
	}

	rankByExpectancy(viable)
	if len(viable) > opts.TopK {
		viable = viable[:opts.TopK]
	}
	res.Stage1 = viable

	t.log.WithFields(logrus.Fields{
		"grid_cells": len(configs),
		"survivors":  len(viable),
	}).Info("stage 1 complete")

	// Stage 2: stability re-test of the survivors on the long window.
	stability := t.fetchUniverse(ctx, opts, opts.StabilityWindow, res.SkippedAssets)
	if len(stability) == 0 {
		return nil, errors.New("no asset produced stability-window candles")
	}
	for asset, candles := range stability {
		res.DatasetHashes[asset] = idhash.DatasetHash(asset, opts.Interval, candles)
	}

	survivorConfigs := make([]domain.StrategyConfig, len(viable))
	for i, c := range viable {
		survivorConfigs[i] = c.Config
	}

	final, err := t.evaluate(ctx, survivorConfigs, stability, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	rankByExpectancy(final)
	res.Stage2 = final

	winner := final[0]
	res.Selected = winner.Config
	res.SelectedMetrics = winner
	res.LowConfidence = winner.TotalTrades < opts.StabilityMinTrades

	t.log.WithFields(logrus.Fields{
		"run_id":         res.RunID,
		"selected":       winner.Config.ID(),
		"expectancy":     winner.Expectancy,
		"trades":         winner.TotalTrades,
		"low_confidence": res.LowConfidence,
	}).Info("stage 2 complete")

	return res, nil
}

func applyDefaults(opts *Options) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinTrades <= 0 {
		opts.MinTrades = DefaultMinTrades
	}
	if opts.StabilityMinTrades <= 0 {
		opts.StabilityMinTrades = DefaultStabilityMinTrades
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if len(opts.Grid.StopLoss) == 0 {
		opts.Grid = DefaultGrid()
	}
}

// fetchUniverse fetches one window of candles per asset with bounded
// concurrency. The data source is rate limited: the client backs off
// internally, and an asset that still fails is skipped with a recorded
// reason rather than failing the run.
func (t *Tuner) fetchUniverse(ctx context.Context, opts Options, w Window, skipped map[string]string) map[string][]domain.Candle {
	type fetched struct {
		asset   string
		candles []domain.Candle
		err     error
	}

	sem := make(chan struct{}, opts.Concurrency)
	results := make([]fetched, len(opts.Assets))
	var wg sync.WaitGroup

	for i, asset := range opts.Assets {
		wg.Add(1)
		go func(i int, asset string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candles, err := t.provider.FetchCandles(ctx, asset, opts.Interval, w.StartMs, w.EndMs)
			results[i] = fetched{asset: asset, candles: candles, err: err}
		}(i, asset)
	}
	wg.Wait()

	out := make(map[string][]domain.Candle, len(opts.Assets))
	for _, r := range results {
		if r.err != nil {
			skipped[r.asset] = r.err.Error()
			t.log.WithField("asset", r.asset).WithError(r.err).Warn("asset skipped")
			continue
		}
		out[r.asset] = r.candles
	}
	return out
}

// evaluate runs every config against every asset with bounded
// concurrency and aggregates trade-weighted metrics per config.
// Aborts between grid cells when ctx is cancelled.
func (t *Tuner) evaluate(ctx context.Context, configs []domain.StrategyConfig, universe map[string][]domain.Candle, concurrency int) ([]CellMetrics, error) {
	assets := make([]string, 0, len(universe))
	for asset := range universe {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	cells := make([]CellMetrics, len(configs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(i int, cfg domain.StrategyConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cell, err := t.evaluateCell(cfg, assets, universe)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			cells[i] = cell
		}(i, cfg)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return cells, nil
}

// evaluateCell simulates one config over the whole universe.
// Series too short for the signal warmup are skipped, not fatal.
func (t *Tuner) evaluateCell(cfg domain.StrategyConfig, assets []string, universe map[string][]domain.Candle) (CellMetrics, error) {
	cell := CellMetrics{Config: cfg}

	var wExpectancy, wWinRate, wAvgReturn, wSharpe float64
	var sumWin, sumLoss float64

	for _, asset := range assets {
		res, err := t.engine.Run(universe[asset], cfg)
		if err != nil {
			if errors.Is(err, backtest.ErrSeriesTooShort) {
				continue
			}
			return cell, fmt.Errorf("simulate %s with %s: %w", asset, cfg.ID(), err)
		}
		if res.TotalTrades == 0 {
			continue
		}

		n := float64(res.TotalTrades)
		cell.TotalTrades += res.TotalTrades
		cell.AssetsCovered++
		wExpectancy += res.Expectancy * n
		wWinRate += res.WinRate * n
		wAvgReturn += res.AvgReturnPct * n
		wSharpe += res.SharpeRatio * n
		if res.MaxDrawdownPct > cell.MaxDrawdownPct {
			cell.MaxDrawdownPct = res.MaxDrawdownPct
		}
		for _, trade := range res.Trades {
			if trade.NetPnLPct > 0 {
				sumWin += trade.NetPnLPct
			} else {
				sumLoss += -trade.NetPnLPct
			}
		}
	}

	if cell.TotalTrades > 0 {
		n := float64(cell.TotalTrades)
		cell.Expectancy = wExpectancy / n
		cell.WinRate = wWinRate / n
		cell.AvgReturnPct = wAvgReturn / n
		cell.SharpeRatio = wSharpe / n
		if sumLoss > 0 {
			cell.ProfitFactor = sumWin / sumLoss
		}
	}
	return cell, nil
}

// rankByExpectancy sorts cells best-first with a deterministic
// tie-break on config identity.
func rankByExpectancy(cells []CellMetrics) {
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Expectancy != cells[j].Expectancy {
			return cells[i].Expectancy > cells[j].Expectancy
		}
		return cells[i].Config.ID() < cells[j].Config.ID()
	})
}
