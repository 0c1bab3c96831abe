package domain

// Candle represents one OHLCV bar of market data.
// Providers return candles oldest-first with millisecond timestamps.
type Candle struct {
	TimestampMs int64   // bar open time (ms)
	Open        float64 // first traded price
	High        float64 // highest traded price
	Low         float64 // lowest traded price
	Close       float64 // last traded price
	Volume      float64 // traded volume in quote units
}

// CandleSeries is an ordered candle sequence for one asset.
type CandleSeries struct {
	Asset    string   // pool or mint identifier
	Interval string   // provider interval label, e.g. "1m", "5m"
	Candles  []Candle // oldest-first
}

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int {
	return len(s.Candles)
}

// IsOrdered reports whether candle timestamps are strictly increasing.
func (s *CandleSeries) IsOrdered() bool {
	for i := 1; i < len(s.Candles); i++ {
		if s.Candles[i].TimestampMs <= s.Candles[i-1].TimestampMs {
			return false
		}
	}
	return true
}
