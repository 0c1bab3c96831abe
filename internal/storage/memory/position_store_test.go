package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

func TestPositionStore_InsertAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	pos := &domain.Position{
		ID:          "pos1",
		Mint:        "MintA",
		AssetClass:  domain.AssetMemecoin,
		Source:      domain.SourceAuto,
		EntryPrice:  1.25,
		Committed:   decimal.NewFromInt(100),
		Status:      domain.StatusOpen,
		EnteredAtMs: 1000,
	}

	if err := store.Insert(ctx, pos); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.EntryPrice != 1.25 {
		t.Errorf("EntryPrice mismatch: got %f, want %f", got.EntryPrice, 1.25)
	}
}

func TestPositionStore_DuplicateKey(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	pos := &domain.Position{ID: "pos1", Mint: "MintA", Status: domain.StatusOpen}

	if err := store.Insert(ctx, pos); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, pos)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionStore_UpdateMissing(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	err := store.Update(ctx, &domain.Position{ID: "nonexistent"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPositionStore_UpdateClose(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	pos := &domain.Position{ID: "pos1", Mint: "MintA", Status: domain.StatusOpen, EnteredAtMs: 1000}
	if err := store.Insert(ctx, pos); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	pos.Status = domain.StatusClosed
	pos.ExitReason = "take_profit"
	pos.ClosedAtMs = 2000
	if err := store.Update(ctx, pos); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, "pos1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusClosed || got.ExitReason != "take_profit" {
		t.Errorf("Close not persisted: status=%s reason=%s", got.Status, got.ExitReason)
	}

	open, err := store.GetOpen(ctx)
	if err != nil {
		t.Fatalf("GetOpen failed: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("Expected no open positions, got %d", len(open))
	}
}

func TestPositionStore_GetOpenOrdering(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	positions := []*domain.Position{
		{ID: "p3", Mint: "M", Status: domain.StatusOpen, EnteredAtMs: 3000},
		{ID: "p1", Mint: "M", Status: domain.StatusOpen, EnteredAtMs: 1000},
		{ID: "p2", Mint: "M", Status: domain.StatusClosed, EnteredAtMs: 2000},
	}
	for _, p := range positions {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert %s failed: %v", p.ID, err)
		}
	}

	open, err := store.GetOpen(ctx)
	if err != nil {
		t.Fatalf("GetOpen failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("Expected 2 open positions, got %d", len(open))
	}
	if open[0].ID != "p1" || open[1].ID != "p3" {
		t.Errorf("Wrong ordering: %s, %s", open[0].ID, open[1].ID)
	}
}

func TestPositionStore_GetByTimeRange(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	for _, p := range []*domain.Position{
		{ID: "p1", Mint: "M", Status: domain.StatusClosed, EnteredAtMs: 1000},
		{ID: "p2", Mint: "M", Status: domain.StatusClosed, EnteredAtMs: 2000},
		{ID: "p3", Mint: "M", Status: domain.StatusClosed, EnteredAtMs: 3000},
	} {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 positions in range, got %d", len(got))
	}
}

func TestPositionStore_CopyOnReturn(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	pos := &domain.Position{ID: "pos1", Mint: "MintA", Status: domain.StatusOpen, EntryPrice: 1.0}
	if err := store.Insert(ctx, pos); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "pos1")
	got.EntryPrice = 99.0

	again, _ := store.GetByID(ctx, "pos1")
	if again.EntryPrice != 1.0 {
		t.Errorf("Mutation of returned copy leaked into store: %f", again.EntryPrice)
	}
}
