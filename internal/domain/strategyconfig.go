package domain

import (
	"errors"
	"fmt"
)

// StrategyConfig holds the exit and cost parameters for one simulation
// run. Immutable once a run starts; distinct configs are compared only
// by their aggregate metrics.
type StrategyConfig struct {
	StopLossPct     float64 // e.g. 0.20 = exit at -20%
	TakeProfitPct   float64 // e.g. 0.80 = exit at +80%
	TrailingStopPct float64 // 0 disables trailing
	MaxHoldCandles  int     // time stop in candles

	SlippagePct  float64 // charged once, at entry
	FeePct       float64 // charged per leg
	MinScore     float64 // entry gate: minimum signal score
	MinLiquidity float64 // entry gate: minimum pool liquidity
	SignalKind   string  // entry signal identifier (see internal/signal)
}

// Config validation errors.
var (
	ErrNonPositiveMaxHold = errors.New("max hold candle count must be positive")
	ErrInvalidStopLoss    = errors.New("stop loss must be in (0, 1)")
	ErrInvalidTakeProfit  = errors.New("take profit must be positive")
	ErrInvalidTrailing    = errors.New("trailing stop must be in [0, 1)")
)

// Validate fails fast on parameters that would corrupt aggregate
// metrics if a simulation silently proceeded with them.
func (c *StrategyConfig) Validate() error {
	if c.MaxHoldCandles <= 0 {
		return fmt.Errorf("%w: got %d", ErrNonPositiveMaxHold, c.MaxHoldCandles)
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidStopLoss, c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTakeProfit, c.TakeProfitPct)
	}
	if c.TrailingStopPct < 0 || c.TrailingStopPct >= 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidTrailing, c.TrailingStopPct)
	}
	if c.SlippagePct < 0 || c.FeePct < 0 {
		return errors.New("slippage and fee percentages must be non-negative")
	}
	if c.SignalKind == "" {
		return errors.New("signal kind is required")
	}
	return nil
}

// ID returns the config identifier including parameters, used as the
// strategy identifier on positions opened with this config.
func (c *StrategyConfig) ID() string {
	return fmt.Sprintf("%s_sl%.0f_tp%.0f_trail%.0f_hold%d",
		c.SignalKind,
		c.StopLossPct*100,
		c.TakeProfitPct*100,
		c.TrailingStopPct*100,
		c.MaxHoldCandles)
}
