package backtest

import (
	"math"

	"solana-trading-core/internal/domain"
)

// Sharpe clamp bounds. Near-zero variance produces degenerate ratios;
// clamping keeps historical runs comparable.
const (
	sharpeMin = -10.0
	sharpeMax = 10.0

	hoursPerYear = 8760.0
)

// Aggregate computes result metrics over a trade list. Trades must be
// in simulation order: the equity curve and drawdown are
// order-dependent.
func Aggregate(trades []domain.BacktestTrade, candleCount int, cfg domain.StrategyConfig) *domain.BacktestResult {
	res := &domain.BacktestResult{
		StrategyID: cfg.ID(),
		SignalKind: cfg.SignalKind,
		Trades:     trades,
	}

	n := len(trades)
	res.TotalTrades = n
	if n == 0 {
		return res
	}

	var sumReturn, sumWin, sumLoss float64
	var sumHold int
	best := trades[0].NetPnLPct
	worst := trades[0].NetPnLPct

	for _, t := range trades {
		r := t.NetPnLPct
		sumReturn += r
		sumHold += t.HoldCandles
		if r > best {
			best = r
		}
		if r < worst {
			worst = r
		}
		if t.Win() {
			res.Wins++
			sumWin += r
		} else {
			res.Losses++
			sumLoss += -r
		}
	}

	res.WinRate = float64(res.Wins) / float64(n)
	res.AvgReturnPct = sumReturn / float64(n)
	res.BestTradePct = best
	res.WorstTradePct = worst
	res.AvgHoldCandles = float64(sumHold) / float64(n)

	if sumLoss > 0 {
		res.ProfitFactor = sumWin / sumLoss
	} else if sumWin > 0 {
		res.ProfitFactor = math.Inf(1)
	}

	var avgWin, avgLoss float64
	if res.Wins > 0 {
		avgWin = sumWin / float64(res.Wins)
	}
	if res.Losses > 0 {
		avgLoss = sumLoss / float64(res.Losses)
	}
	res.Expectancy = res.WinRate*avgWin - (1-res.WinRate)*avgLoss

	res.MaxDrawdownPct = equityCurveDrawdown(trades)
	res.SharpeRatio = sharpeLike(trades, candleCount)

	return res
}

// equityCurveDrawdown compounds each trade's net return sequentially
// and returns the worst peak-to-trough on that curve.
func equityCurveDrawdown(trades []domain.BacktestTrade) float64 {
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, t := range trades {
		equity *= 1 + t.NetPnLPct
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// sharpeLike annualizes the trade-return mean over its standard
// deviation using trades-per-year estimated from trade frequency in
// the candle series. A rough proxy, kept for comparability with
// historical runs.
func sharpeLike(trades []domain.BacktestTrade, candleCount int) float64 {
	n := len(trades)
	if n < 2 || candleCount <= 0 {
		return 0
	}

	var mean float64
	for _, t := range trades {
		mean += t.NetPnLPct
	}
	mean /= float64(n)

	var variance float64
	for _, t := range trades {
		d := t.NetPnLPct - mean
		variance += d * d
	}
	variance /= float64(n - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	tradesPerYear := float64(n) / float64(candleCount) * hoursPerYear
	ratio := mean / std * math.Sqrt(tradesPerYear)

	if ratio > sharpeMax {
		return sharpeMax
	}
	if ratio < sharpeMin {
		return sharpeMin
	}
	return ratio
}
