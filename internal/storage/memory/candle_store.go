package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

type candleKey struct {
	asset    string
	interval string
}

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[candleKey]map[int64]domain.Candle // keyed by (asset, interval) then timestamp
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[candleKey]map[int64]domain.Candle),
	}
}

// InsertBulk adds candles for an asset/interval pair. Fails the entire
// batch on any duplicate timestamp.
func (s *CandleStore) InsertBulk(_ context.Context, asset, interval string, candles []domain.Candle) error {
	if asset == "" || interval == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := candleKey{asset: asset, interval: interval}
	existing := s.data[key]

	batchKeys := make(map[int64]struct{}, len(candles))
	for _, c := range candles {
		if _, dup := existing[c.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := batchKeys[c.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
		batchKeys[c.TimestampMs] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]domain.Candle, len(candles))
		s.data[key] = existing
	}
	for _, c := range candles {
		existing[c.TimestampMs] = c
	}
	return nil
}

// GetByAsset retrieves all candles for an asset/interval, ordered by timestamp ASC.
func (s *CandleStore) GetByAsset(_ context.Context, asset, interval string) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(asset, interval, func(domain.Candle) bool { return true }), nil
}

// GetByTimeRange retrieves candles within [start, end] (inclusive).
func (s *CandleStore) GetByTimeRange(_ context.Context, asset, interval string, start, end int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(asset, interval, func(c domain.Candle) bool {
		return c.TimestampMs >= start && c.TimestampMs <= end
	}), nil
}

// collect must be called with the read lock held.
func (s *CandleStore) collect(asset, interval string, keep func(domain.Candle) bool) []domain.Candle {
	var result []domain.Candle
	for _, c := range s.data[candleKey{asset: asset, interval: interval}] {
		if keep(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

var _ storage.CandleStore = (*CandleStore)(nil)
