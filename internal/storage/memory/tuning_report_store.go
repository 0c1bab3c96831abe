package memory

import (
	"context"
	"sync"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

// TuningReportStore is an in-memory implementation of storage.TuningReportStore.
type TuningReportStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TuningReport // keyed by run ID
}

// NewTuningReportStore creates a new in-memory tuning report store.
func NewTuningReportStore() *TuningReportStore {
	return &TuningReportStore{
		data: make(map[string]*domain.TuningReport),
	}
}

// Insert adds a report. Returns ErrDuplicateKey if the run ID exists.
func (s *TuningReportStore) Insert(_ context.Context, r *domain.TuningReport) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = copyReport(r)
	return nil
}

// GetByRunID retrieves a report by its run ID. Returns ErrNotFound if not exists.
func (s *TuningReportStore) GetByRunID(_ context.Context, runID string) (*domain.TuningReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyReport(r), nil
}

// GetLatest retrieves the most recently generated report for a signal kind.
func (s *TuningReportStore) GetLatest(_ context.Context, signalKind string) (*domain.TuningReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.TuningReport
	for _, r := range s.data {
		if r.SignalKind != signalKind {
			continue
		}
		if latest == nil || r.GeneratedAtMs > latest.GeneratedAtMs {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	return copyReport(latest), nil
}

func copyReport(r *domain.TuningReport) *domain.TuningReport {
	copy := *r
	copy.PayloadJSON = append([]byte(nil), r.PayloadJSON...)
	return &copy
}

var _ storage.TuningReportStore = (*TuningReportStore)(nil)
