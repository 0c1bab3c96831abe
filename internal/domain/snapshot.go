package domain

// TokenSnapshot is a normalized live view of one asset, produced from a
// provider's own schema before the entry gate ever sees it.
type TokenSnapshot struct {
	Mint       string
	Symbol     string
	AssetClass AssetClass

	PriceUSD       float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange1h  float64 // fraction, 2.0 = +200%
	PriceChange24h float64

	Buys1h  int // buy transaction count, last hour
	Sells1h int // sell transaction count, last hour

	AgeMinutes float64 // minutes since graduation/listing

	ObservedAtMs int64
}

// BuySellRatio returns buys over sells for the last hour.
// A sell count of zero with any buys reads as maximally skewed.
func (s *TokenSnapshot) BuySellRatio() float64 {
	if s.Sells1h == 0 {
		if s.Buys1h == 0 {
			return 0
		}
		return float64(s.Buys1h)
	}
	return float64(s.Buys1h) / float64(s.Sells1h)
}

// VolumeLiquidityRatio returns 24h volume over pool liquidity.
func (s *TokenSnapshot) VolumeLiquidityRatio() float64 {
	if s.LiquidityUSD <= 0 {
		return 0
	}
	return s.Volume24hUSD / s.LiquidityUSD
}
