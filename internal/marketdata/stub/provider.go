package stub

import (
	"context"
	"sync"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/marketdata"
)

// CandleProvider returns fixed in-memory candle series for testing.
// Implements marketdata.CandleProvider.
type CandleProvider struct {
	mu     sync.Mutex
	series map[string][]domain.Candle // keyed by asset

	// Fail marks assets whose fetch should fail with the given error.
	Fail map[string]error

	fetches int
}

// NewCandleProvider creates a stub provider over the given series.
func NewCandleProvider(series map[string][]domain.Candle) *CandleProvider {
	return &CandleProvider{
		series: series,
		Fail:   make(map[string]error),
	}
}

// FetchCandles returns the series filtered to [startMs, endMs].
func (p *CandleProvider) FetchCandles(_ context.Context, asset, _ string, startMs, endMs int64) ([]domain.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetches++
	if err, ok := p.Fail[asset]; ok {
		return nil, err
	}

	all, ok := p.series[asset]
	if !ok {
		return nil, marketdata.ErrNoData
	}

	var result []domain.Candle
	for _, c := range all {
		if c.TimestampMs >= startMs && c.TimestampMs <= endMs {
			result = append(result, c)
		}
	}
	if len(result) == 0 {
		return nil, marketdata.ErrNoData
	}
	return result, nil
}

// Fetches returns how many fetch calls were made.
func (p *CandleProvider) Fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

var _ marketdata.CandleProvider = (*CandleProvider)(nil)
