package signal

import "solana-trading-core/internal/domain"

// RSI computes the relative strength index over the closes ending at
// index i, using simple averages of gains and losses (Cutler's
// variant, no Wilder smoothing). Returns 50 when there is not enough
// data and saturates at 100 on loss-free windows.
func RSI(candles []domain.Candle, i, period int) float64 {
	if i < period {
		return 50
	}

	var avgGain, avgLoss float64
	start := i - period + 1
	for j := start; j <= i; j++ {
		change := candles[j].Close - candles[j-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// SMA computes the simple moving average of closes over the window
// ending at index i. Returns 0 when there is not enough data.
func SMA(candles []domain.Candle, i, period int) float64 {
	if i < period-1 {
		return 0
	}
	var sum float64
	for j := i - period + 1; j <= i; j++ {
		sum += candles[j].Close
	}
	return sum / float64(period)
}

// avgVolume computes the mean volume over the window ending at index i,
// excluding candle i itself.
func avgVolume(candles []domain.Candle, i, period int) float64 {
	if i < period {
		return 0
	}
	var sum float64
	for j := i - period; j < i; j++ {
		sum += candles[j].Volume
	}
	return sum / float64(period)
}

// highestHigh returns the highest high in the window ending at index
// i-1 (the N candles before i).
func highestHigh(candles []domain.Candle, i, period int) float64 {
	if i < period {
		return 0
	}
	hh := candles[i-period].High
	for j := i - period + 1; j < i; j++ {
		if candles[j].High > hh {
			hh = candles[j].High
		}
	}
	return hh
}
