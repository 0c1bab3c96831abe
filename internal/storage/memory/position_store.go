package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position ID
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Insert adds a new position. Returns ErrDuplicateKey if the ID exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *p
	s.data[p.ID] = &copy
	return nil
}

// Update replaces the stored record for an existing position.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.ID]; !exists {
		return storage.ErrNotFound
	}

	copy := *p
	s.data[p.ID] = &copy
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, positionID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

// GetOpen retrieves all open positions, ordered by entry time ASC.
func (s *PositionStore) GetOpen(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.IsOpen() {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortByEntryTime(result)
	return result, nil
}

// GetByMint retrieves all positions for a mint, ordered by entry time ASC.
func (s *PositionStore) GetByMint(_ context.Context, mint string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Mint == mint {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortByEntryTime(result)
	return result, nil
}

// GetByTimeRange retrieves positions entered within [start, end] (inclusive).
func (s *PositionStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.EnteredAtMs >= start && p.EnteredAtMs <= end {
			copy := *p
			result = append(result, &copy)
		}
	}

	sortByEntryTime(result)
	return result, nil
}

func sortByEntryTime(positions []*domain.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].EnteredAtMs == positions[j].EnteredAtMs {
			return positions[i].ID < positions[j].ID
		}
		return positions[i].EnteredAtMs < positions[j].EnteredAtMs
	})
}

var _ storage.PositionStore = (*PositionStore)(nil)
