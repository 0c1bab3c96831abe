package memory

import (
	"context"
	"errors"
	"testing"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

func TestCandleStore_InsertBulkAndGet(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []domain.Candle{
		{TimestampMs: 2000, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 500},
		{TimestampMs: 1000, Open: 1.0, High: 1.1, Low: 0.9, Close: 1.1, Volume: 400},
	}
	if err := store.InsertBulk(ctx, "SOL", "1h", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByAsset(ctx, "SOL", "1h")
	if err != nil {
		t.Fatalf("GetByAsset failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(got))
	}
	if got[0].TimestampMs != 1000 || got[1].TimestampMs != 2000 {
		t.Errorf("Candles not ordered: %d, %d", got[0].TimestampMs, got[1].TimestampMs)
	}
}

func TestCandleStore_DuplicateTimestamp(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	first := []domain.Candle{{TimestampMs: 1000, Close: 1.0}}
	if err := store.InsertBulk(ctx, "SOL", "1h", first); err != nil {
		t.Fatalf("First InsertBulk failed: %v", err)
	}

	again := []domain.Candle{
		{TimestampMs: 2000, Close: 1.1},
		{TimestampMs: 1000, Close: 1.2},
	}
	err := store.InsertBulk(ctx, "SOL", "1h", again)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Failed batch must not partially apply.
	got, _ := store.GetByAsset(ctx, "SOL", "1h")
	if len(got) != 1 {
		t.Errorf("Expected 1 candle after failed batch, got %d", len(got))
	}
}

func TestCandleStore_IntervalsIsolated(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "SOL", "1h", []domain.Candle{{TimestampMs: 1000}}); err != nil {
		t.Fatalf("InsertBulk 1h failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "SOL", "5m", []domain.Candle{{TimestampMs: 1000}}); err != nil {
		t.Fatalf("InsertBulk 5m failed: %v", err)
	}

	got, _ := store.GetByAsset(ctx, "SOL", "1h")
	if len(got) != 1 {
		t.Errorf("Expected 1 candle for 1h interval, got %d", len(got))
	}
}

func TestCandleStore_GetByTimeRange(t *testing.T) {
	store := NewCandleStore()
	ctx := context.Background()

	candles := []domain.Candle{
		{TimestampMs: 1000}, {TimestampMs: 2000}, {TimestampMs: 3000},
	}
	if err := store.InsertBulk(ctx, "SOL", "1h", candles); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "SOL", "1h", 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 candles in range, got %d", len(got))
	}
}
