package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Decision // keyed by decision ID
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		data: make(map[string]*domain.Decision),
	}
}

// Insert appends a decision record. Returns ErrDuplicateKey if the ID exists.
func (s *DecisionStore) Insert(_ context.Context, d *domain.Decision) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *d
	copy.Flags = append([]string(nil), d.Flags...)
	s.data[d.ID] = &copy
	return nil
}

// GetByMint retrieves all decisions for a mint, ordered by decision time ASC.
func (s *DecisionStore) GetByMint(_ context.Context, mint string) ([]*domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Decision
	for _, d := range s.data {
		if d.Mint == mint {
			result = append(result, copyDecision(d))
		}
	}

	sortByDecisionTime(result)
	return result, nil
}

// GetByTimeRange retrieves decisions made within [start, end] (inclusive).
func (s *DecisionStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Decision
	for _, d := range s.data {
		if d.DecidedAtMs >= start && d.DecidedAtMs <= end {
			result = append(result, copyDecision(d))
		}
	}

	sortByDecisionTime(result)
	return result, nil
}

func copyDecision(d *domain.Decision) *domain.Decision {
	copy := *d
	copy.Flags = append([]string(nil), d.Flags...)
	return &copy
}

func sortByDecisionTime(decisions []*domain.Decision) {
	sort.Slice(decisions, func(i, j int) bool {
		if decisions[i].DecidedAtMs == decisions[j].DecidedAtMs {
			return decisions[i].ID < decisions[j].ID
		}
		return decisions[i].DecidedAtMs < decisions[j].DecidedAtMs
	})
}

var _ storage.DecisionStore = (*DecisionStore)(nil)
