package signal

import "solana-trading-core/internal/domain"

// Default predicate parameters.
const (
	rsiPeriod        = 14
	rsiLowerBand     = 50.0
	rsiUpperBand     = 70.0
	maPeriod         = 20
	maFastPeriod     = 5
	breakoutLookback = 12
	volumeSurgeMult  = 2.0
	reversionPeriod  = 20
	reversionDist    = 0.03 // 3% below the moving average
)

// RSIBand fires when momentum sits inside a rising band: RSI above the
// lower band but not yet overheated past the upper band.
type RSIBand struct{}

// NewRSIBand creates the RSI band predicate with default parameters.
func NewRSIBand() *RSIBand { return &RSIBand{} }

func (s *RSIBand) Kind() Kind  { return KindRSIBand }
func (s *RSIBand) Warmup() int { return rsiPeriod + 1 }

func (s *RSIBand) Qualifies(candles []domain.Candle, i int) bool {
	if i < s.Warmup() {
		return false
	}
	rsi := RSI(candles, i, rsiPeriod)
	prev := RSI(candles, i-1, rsiPeriod)
	return rsi > rsiLowerBand && rsi < rsiUpperBand && rsi > prev
}

// MACrossover fires when the fast moving average crosses above the
// slow one on above-average volume.
type MACrossover struct{}

// NewMACrossover creates the crossover predicate with default parameters.
func NewMACrossover() *MACrossover { return &MACrossover{} }

func (s *MACrossover) Kind() Kind  { return KindMACrossover }
func (s *MACrossover) Warmup() int { return maPeriod + 1 }

func (s *MACrossover) Qualifies(candles []domain.Candle, i int) bool {
	if i < s.Warmup() {
		return false
	}
	fast := SMA(candles, i, maFastPeriod)
	slow := SMA(candles, i, maPeriod)
	prevFast := SMA(candles, i-1, maFastPeriod)
	prevSlow := SMA(candles, i-1, maPeriod)

	crossed := prevFast <= prevSlow && fast > slow
	if !crossed {
		return false
	}
	avg := avgVolume(candles, i, maPeriod)
	return avg > 0 && candles[i].Volume > avg
}

// Breakout fires when the close breaks the N-candle high on a volume
// surge.
type Breakout struct{}

// NewBreakout creates the breakout predicate with default parameters.
func NewBreakout() *Breakout { return &Breakout{} }

func (s *Breakout) Kind() Kind  { return KindBreakout }
func (s *Breakout) Warmup() int { return breakoutLookback + 1 }

func (s *Breakout) Qualifies(candles []domain.Candle, i int) bool {
	if i < s.Warmup() {
		return false
	}
	hh := highestHigh(candles, i, breakoutLookback)
	if hh <= 0 || candles[i].Close <= hh {
		return false
	}
	avg := avgVolume(candles, i, breakoutLookback)
	return avg > 0 && candles[i].Volume >= avg*volumeSurgeMult
}

// MeanReversion fires when the close sits far enough below the moving
// average and the candle itself turns up.
type MeanReversion struct{}

// NewMeanReversion creates the reversion predicate with default parameters.
func NewMeanReversion() *MeanReversion { return &MeanReversion{} }

func (s *MeanReversion) Kind() Kind  { return KindMeanReversion }
func (s *MeanReversion) Warmup() int { return reversionPeriod + 1 }

func (s *MeanReversion) Qualifies(candles []domain.Candle, i int) bool {
	if i < s.Warmup() {
		return false
	}
	ma := SMA(candles, i, reversionPeriod)
	if ma <= 0 {
		return false
	}
	below := (ma - candles[i].Close) / ma
	return below >= reversionDist && candles[i].Close > candles[i].Open
}

// Compile-time predicate set check.
var (
	_ Signal = (*RSIBand)(nil)
	_ Signal = (*MACrossover)(nil)
	_ Signal = (*Breakout)(nil)
	_ Signal = (*MeanReversion)(nil)
)
