package tuner

import "solana-trading-core/internal/domain"

// Grid is the parameter sweep space: every combination of the four
// axes is evaluated in Stage 1.
type Grid struct {
	StopLoss     []float64
	TakeProfit   []float64
	TrailingStop []float64 // 0 disables trailing
	MaxHold      []int
}

// DefaultGrid covers the production sweep.
func DefaultGrid() Grid {
	return Grid{
		StopLoss:     []float64{0.08, 0.12, 0.20, 0.30},
		TakeProfit:   []float64{0.25, 0.50, 0.80, 1.50},
		TrailingStop: []float64{0, 0.05, 0.08, 0.12},
		MaxHold:      []int{8, 24, 48, 96},
	}
}

// Configs expands the grid into concrete configs in deterministic
// order.
func (g Grid) Configs(signalKind string, slippagePct, feePct float64) []domain.StrategyConfig {
	configs := make([]domain.StrategyConfig, 0,
		len(g.StopLoss)*len(g.TakeProfit)*len(g.TrailingStop)*len(g.MaxHold))
	for _, sl := range g.StopLoss {
		for _, tp := range g.TakeProfit {
			for _, trail := range g.TrailingStop {
				for _, hold := range g.MaxHold {
					configs = append(configs, domain.StrategyConfig{
						StopLossPct:     sl,
						TakeProfitPct:   tp,
						TrailingStopPct: trail,
						MaxHoldCandles:  hold,
						SlippagePct:     slippagePct,
						FeePct:          feePct,
						SignalKind:      signalKind,
					})
				}
			}
		}
	}
	return configs
}
