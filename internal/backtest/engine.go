// Package backtest replays historical candle series against one
// strategy configuration and produces trade-level and aggregate
// results. The engine is a leaf: it never touches live ledger state.
package backtest

import (
	"errors"
	"fmt"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/signal"
)

// ErrSeriesTooShort is returned when the candle series cannot cover
// the signal warmup. Callers treat it as data insufficiency and skip
// the asset/config combination rather than failing the batch.
var ErrSeriesTooShort = errors.New("candle series shorter than signal warmup")

// Engine runs simulations. Stateless; safe for concurrent use.
type Engine struct{}

// NewEngine creates a simulation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Run simulates cfg over candles and returns aggregate results.
// Identical inputs always produce byte-identical trade lists; tuning
// and provenance hashing depend on that.
func (e *Engine) Run(candles []domain.Candle, cfg domain.StrategyConfig) (*domain.BacktestResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}

	sig, err := signal.FromKind(signal.Kind(cfg.SignalKind))
	if err != nil {
		return nil, err
	}

	if len(candles) <= sig.Warmup() {
		return nil, ErrSeriesTooShort
	}

	trades := make([]domain.BacktestTrade, 0)
	i := sig.Warmup()
	for i < len(candles)-1 {
		if !sig.Qualifies(candles, i) {
			i++
			continue
		}

		trade, exitIdx := e.simulateTrade(candles, i, cfg)
		trades = append(trades, trade)

		// No overlapping trades on the same series.
		i = exitIdx + 1
	}

	result := Aggregate(trades, len(candles), cfg)
	return result, nil
}

// simulateTrade opens at candles[entryIdx].Close plus slippage and
// walks forward until the first satisfied exit condition. Returns the
// trade and the index of the exit candle.
func (e *Engine) simulateTrade(candles []domain.Candle, entryIdx int, cfg domain.StrategyConfig) (domain.BacktestTrade, int) {
	fill := candles[entryIdx].Close * (1 + cfg.SlippagePct)
	stopPrice := fill * (1 - cfg.StopLossPct)
	targetPrice := fill * (1 + cfg.TakeProfitPct)

	highWater := fill
	lowWater := fill
	peak := fill
	maxDD := 0.0

	var exitPrice float64
	var exitReason string
	exitIdx := len(candles) - 1

	for j := entryIdx + 1; j < len(candles); j++ {
		c := candles[j]

		// Trailing floor from candles before this one. Arms only once
		// it sits above the static stop; trailing tightens the floor,
		// never loosens it.
		trailPrice := 0.0
		if cfg.TrailingStopPct > 0 {
			t := highWater * (1 - cfg.TrailingStopPct)
			if t > stopPrice {
				trailPrice = t
			}
		}

		// Fixed priority order: stop-loss, take-profit, trailing stop,
		// max-hold, end-of-data.
		switch {
		case c.Low <= stopPrice:
			exitPrice = stopPrice
			exitReason = domain.ExitReasonStopLoss
			exitIdx = j
		case c.High >= targetPrice:
			exitPrice = targetPrice
			exitReason = domain.ExitReasonTakeProfit
			exitIdx = j
		case trailPrice > 0 && c.Low <= trailPrice:
			exitPrice = trailPrice
			exitReason = domain.ExitReasonTrailingStop
			exitIdx = j
		case j-entryIdx >= cfg.MaxHoldCandles:
			exitPrice = c.Close
			exitReason = domain.ExitReasonTimeExpired
			exitIdx = j
		}

		if c.High > highWater {
			highWater = c.High
		}
		if c.Low < lowWater {
			lowWater = c.Low
		}
		if c.High > peak {
			peak = c.High
		}
		if peak > 0 {
			dd := (peak - c.Low) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}

		if exitReason != "" {
			break
		}
	}

	if exitReason == "" {
		last := candles[len(candles)-1]
		exitPrice = last.Close
		exitReason = domain.ExitReasonEndOfData
		exitIdx = len(candles) - 1
	}

	gross := exitPrice/fill - 1
	net := gross - 2*cfg.FeePct - cfg.SlippagePct

	return domain.BacktestTrade{
		EntryTimeMs:    candles[entryIdx].TimestampMs,
		ExitTimeMs:     candles[exitIdx].TimestampMs,
		EntryPrice:     fill,
		ExitPrice:      exitPrice,
		GrossPnLPct:    gross,
		NetPnLPct:      net,
		ExitReason:     exitReason,
		HoldCandles:    exitIdx - entryIdx,
		HighWaterPct:   highWater/fill - 1,
		LowWaterPct:    lowWater/fill - 1,
		MaxDrawdownPct: maxDD,
	}, exitIdx
}
