package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/storage"
)

func createTestDecision(id, mint string, decidedAt int64) *domain.Decision {
	return &domain.Decision{
		ID:         id,
		Mint:       mint,
		Symbol:     "TEST",
		AssetClass: domain.AssetMemecoin,
		Action:     domain.ActionAdmit,
		Multiplier: 1.2,
		Factors: domain.ConvictionFactors{
			LiquidityBonus: 0.2,
			TxDepthBonus:   0.1,
		},
		Flags:       []string{domain.FlagPumpRisk},
		StrategyID:  "rsi_band_sl12_tp25_trail5_hold24",
		DecidedAtMs: decidedAt,
	}
}

func TestDecisionStore_InsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionStore(pool)

	require.NoError(t, store.Insert(ctx, createTestDecision("dec-002", "MintA", 2000)))
	require.NoError(t, store.Insert(ctx, createTestDecision("dec-001", "MintA", 1000)))
	require.NoError(t, store.Insert(ctx, createTestDecision("dec-003", "MintB", 3000)))

	got, err := store.GetByMint(ctx, "MintA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dec-001", got[0].ID)
	assert.Equal(t, "dec-002", got[1].ID)
	assert.Equal(t, []string{domain.FlagPumpRisk}, got[0].Flags)
	assert.Equal(t, 0.2, got[0].Factors.LiquidityBonus)
}

func TestDecisionStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionStore(pool)

	d := createTestDecision("dec-001", "MintA", 1000)
	require.NoError(t, store.Insert(ctx, d))

	err := store.Insert(ctx, d)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestDecisionStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionStore(pool)

	require.NoError(t, store.Insert(ctx, createTestDecision("dec-001", "MintA", 1000)))
	require.NoError(t, store.Insert(ctx, createTestDecision("dec-002", "MintA", 5000)))

	got, err := store.GetByTimeRange(ctx, 0, 2000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dec-001", got[0].ID)
}

func TestDecisionStore_RejectRecord(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionStore(pool)

	d := createTestDecision("dec-001", "MintA", 1000)
	d.Action = domain.ActionReject
	d.Reason = domain.RejectLowLiquidity
	d.Multiplier = 0
	d.Flags = nil
	require.NoError(t, store.Insert(ctx, d))

	got, err := store.GetByMint(ctx, "MintA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ActionReject, got[0].Action)
	assert.Equal(t, domain.RejectLowLiquidity, got[0].Reason)
	assert.False(t, got[0].Admitted())
}
