package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

func createTestPosition(id, mint string) *domain.Position {
	return &domain.Position{
		ID:              id,
		Mint:            mint,
		Symbol:          "TEST",
		AssetClass:      domain.AssetMemecoin,
		Source:          domain.SourceAuto,
		StrategyID:      "rsi_band_sl12_tp25_trail5_hold24",
		EntryPrice:      0.01,
		CurrentPrice:    0.01,
		Quantity:        10000,
		Committed:       decimal.NewFromInt(100),
		PnLAbs:          decimal.Zero,
		StopLossPct:     0.12,
		TakeProfitPct:   0.25,
		TrailingStopPct: 0.05,
		Status:          domain.StatusOpen,
		EnteredAtMs:     1000,
	}
}

func TestPositionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := createTestPosition("pos-001", "MintA")
	require.NoError(t, store.Insert(ctx, pos))

	got, err := store.GetByID(ctx, "pos-001")
	require.NoError(t, err)
	assert.Equal(t, "MintA", got.Mint)
	assert.Equal(t, domain.AssetMemecoin, got.AssetClass)
	assert.Equal(t, domain.SourceAuto, got.Source)
	assert.True(t, got.Committed.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0.12, got.StopLossPct)
}

func TestPositionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := createTestPosition("pos-001", "MintA")
	require.NoError(t, store.Insert(ctx, pos))

	err := store.Insert(ctx, pos)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPositionStore_UpdateClose(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := createTestPosition("pos-001", "MintA")
	require.NoError(t, store.Insert(ctx, pos))

	pos.Status = domain.StatusClosed
	pos.ExitReason = "take_profit"
	pos.PnLPct = 0.25
	pos.PnLAbs = decimal.NewFromInt(25)
	pos.ClosedAtMs = 2000
	require.NoError(t, store.Update(ctx, pos))

	got, err := store.GetByID(ctx, "pos-001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.Equal(t, "take_profit", got.ExitReason)
	assert.True(t, got.PnLAbs.Equal(decimal.NewFromInt(25)))

	open, err := store.GetOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestPositionStore_UpdateMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	err := store.Update(ctx, createTestPosition("nonexistent", "MintA"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_GetOpenOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	p1 := createTestPosition("pos-001", "MintA")
	p1.EnteredAtMs = 3000
	p2 := createTestPosition("pos-002", "MintB")
	p2.EnteredAtMs = 1000
	p3 := createTestPosition("pos-003", "MintC")
	p3.EnteredAtMs = 2000
	p3.Status = domain.StatusClosed
	p3.ClosedAtMs = 2500

	for _, p := range []*domain.Position{p1, p2, p3} {
		require.NoError(t, store.Insert(ctx, p))
	}

	open, err := store.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "pos-002", open[0].ID)
	assert.Equal(t, "pos-001", open[1].ID)
}

func TestPositionStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	for i, enteredAt := range []int64{1000, 2000, 3000} {
		p := createTestPosition(
			"pos-00"+string(rune('1'+i)),
			"MintA",
		)
		p.EnteredAtMs = enteredAt
		require.NoError(t, store.Insert(ctx, p))
	}

	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
