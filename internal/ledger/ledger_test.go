package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/risk"
)

// validSig encodes 64 bytes whose R component is the identity point,
// which passes the signature shape check.
func validSig() string {
	raw := make([]byte, 64)
	raw[0] = 0x01
	return base58.Encode(raw)
}

type recordingSink struct {
	opened     []domain.Position
	closed     []domain.Position
	reconciled []domain.Position
}

func (s *recordingSink) PositionOpened(p domain.Position)     { s.opened = append(s.opened, p) }
func (s *recordingSink) PositionClosed(p domain.Position)     { s.closed = append(s.closed, p) }
func (s *recordingSink) PositionReconciled(p domain.Position) { s.reconciled = append(s.reconciled, p) }

func testLedger(allocated float64) *Ledger {
	return New(Options{Allocated: decimal.NewFromFloat(allocated)})
}

func openRequest(mint string, committed float64) OpenRequest {
	return OpenRequest{
		Mint:       mint,
		Symbol:     "TEST",
		AssetClass: domain.AssetMemecoin,
		Source:     domain.SourceAuto,
		StrategyID: "strat-1",
		EntryPrice: 1.0,
		Quantity:   100,
		Committed:  decimal.NewFromFloat(committed),
	}
}

func TestOpen_CommitsBudget(t *testing.T) {
	l := testLedger(1000)

	p, err := l.Open(openRequest("mint-a", 100))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.ID == "" {
		t.Error("position must carry an identifier")
	}
	if p.Status != domain.StatusOpen {
		t.Errorf("expected open status, got %s", p.Status)
	}

	b := l.Budget()
	if !b.Spent.Equal(decimal.NewFromFloat(100)) {
		t.Errorf("expected spent 100, got %s", b.Spent)
	}
}

func TestOpen_RejectsOverspend(t *testing.T) {
	l := testLedger(1000)

	if _, err := l.Open(openRequest("mint-a", 900)); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	_, err := l.Open(openRequest("mint-b", 200))
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}

	// The failed open must not leak budget.
	if !l.Budget().Spent.Equal(decimal.NewFromFloat(900)) {
		t.Errorf("expected spent unchanged at 900, got %s", l.Budget().Spent)
	}
}

func TestOpen_RejectsInvalidRequest(t *testing.T) {
	l := testLedger(1000)

	req := openRequest("", 100)
	if _, err := l.Open(req); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("empty mint: expected ErrInvalidPosition, got %v", err)
	}

	req = openRequest("mint-a", 0)
	if _, err := l.Open(req); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("zero committed: expected ErrInvalidPosition, got %v", err)
	}
}

func TestOpen_StripsOnChainExitsUntilConfirmed(t *testing.T) {
	l := testLedger(1000)

	req := openRequest("mint-a", 100)
	req.OnChainExits = true

	p, err := l.Open(req)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.OnChainExits {
		t.Error("on-chain exits must stay off before collaborator confirmation")
	}

	l.ConfirmOnChainExitSupport()
	p2, err := l.Open(req)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	if !p2.OnChainExits {
		t.Error("on-chain exits should be honored after confirmation")
	}
}

func TestClose_RealizesPnLAndReleasesBudget(t *testing.T) {
	sink := &recordingSink{}
	l := New(Options{Allocated: decimal.NewFromFloat(1000), Sink: sink})

	p, err := l.Open(openRequest("mint-a", 100))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	closed, ok := l.Close(p.ID, domain.ExitReasonTakeProfit, validSig(), decimal.NewFromFloat(150))
	if !ok {
		t.Fatal("Close reported not found")
	}
	if closed.Status != domain.StatusClosed {
		t.Errorf("expected closed status, got %s", closed.Status)
	}
	if !closed.PnLAbs.Equal(decimal.NewFromFloat(50)) {
		t.Errorf("expected PnL 50, got %s", closed.PnLAbs)
	}
	if closed.PnLPct != 0.5 {
		t.Errorf("expected PnL 50%%, got %v", closed.PnLPct)
	}

	if !l.Budget().Spent.Equal(decimal.Zero) {
		t.Errorf("expected budget released, spent=%s", l.Budget().Spent)
	}
	if len(sink.closed) != 1 {
		t.Fatalf("expected 1 close event, got %d", len(sink.closed))
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	l := New(Options{Allocated: decimal.NewFromFloat(1000), Sink: sink})

	p, _ := l.Open(openRequest("mint-a", 100))
	if _, ok := l.Close(p.ID, domain.ExitReasonManual, "", decimal.NewFromFloat(90)); !ok {
		t.Fatal("first close failed")
	}
	if _, ok := l.Close(p.ID, domain.ExitReasonManual, "", decimal.NewFromFloat(90)); ok {
		t.Fatal("second close must be a no-op")
	}

	// Budget released exactly once.
	if !l.Budget().Spent.Equal(decimal.Zero) {
		t.Errorf("expected spent 0, got %s", l.Budget().Spent)
	}
	if len(sink.closed) != 1 {
		t.Errorf("expected exactly 1 close event, got %d", len(sink.closed))
	}
}

func TestClose_UnknownPosition(t *testing.T) {
	l := testLedger(1000)
	if _, ok := l.Close("missing", domain.ExitReasonManual, "", decimal.Zero); ok {
		t.Fatal("closing an unknown position must fail")
	}
}

func TestBudget_SpentNeverNegative(t *testing.T) {
	l := testLedger(1000)

	p, _ := l.Open(openRequest("mint-a", 100))
	l.Close(p.ID, domain.ExitReasonManual, "", decimal.NewFromFloat(90))

	// Reconciling an already closed position is a no-op; even a
	// hypothetical double release must clamp at zero.
	l.Reconcile(p.ID, domain.ReconcileBuyUnresolved)
	if l.Budget().Spent.Sign() < 0 {
		t.Errorf("spent went negative: %s", l.Budget().Spent)
	}
}

func TestReconcile_ReleasesOnlyBuyUnresolved(t *testing.T) {
	sink := &recordingSink{}
	l := New(Options{Allocated: decimal.NewFromFloat(1000), Sink: sink})

	a, _ := l.Open(openRequest("mint-a", 100))
	b, _ := l.Open(openRequest("mint-b", 100))

	ra, ok := l.Reconcile(a.ID, domain.ReconcileBuyUnresolved)
	if !ok || !ra.Reconciled {
		t.Fatal("buy_unresolved reconcile failed")
	}
	if !l.Budget().Spent.Equal(decimal.NewFromFloat(100)) {
		t.Errorf("expected 100 released, spent=%s", l.Budget().Spent)
	}

	rb, ok := l.Reconcile(b.ID, domain.ReconcileChainSync)
	if !ok || rb.ReconcileReason != domain.ReconcileChainSync {
		t.Fatal("chain_sync reconcile failed")
	}
	// chain_sync rows keep their spend: the ledger never funded them
	// from this counter's perspective once chain state disagrees.
	if !l.Budget().Spent.Equal(decimal.NewFromFloat(100)) {
		t.Errorf("chain_sync must not release budget, spent=%s", l.Budget().Spent)
	}

	if len(sink.reconciled) != 2 {
		t.Errorf("expected 2 reconcile events, got %d", len(sink.reconciled))
	}
}

func TestReconcile_DoesNotFeedBreakerOrBeliefs(t *testing.T) {
	l := testLedger(1000)

	for i := 0; i < 5; i++ {
		p, _ := l.Open(openRequest("mint-a", 10))
		l.Reconcile(p.ID, domain.ReconcileBuyUnresolved)
	}

	if ok, _ := l.AllowEntry(domain.AssetMemecoin); !ok {
		t.Error("reconciles must not trip the breaker")
	}
	if len(l.Beliefs()) != 0 {
		t.Errorf("reconciles must not create beliefs, got %v", l.Beliefs())
	}
}

func TestApplyTick_TracksPnLAndHighWater(t *testing.T) {
	l := testLedger(1000)

	p, _ := l.Open(openRequest("mint-a", 100))

	l.ApplyTick("mint-a", 1.5)
	got, _ := l.Position(p.ID)
	if got.PnLPct != 0.5 {
		t.Errorf("expected +50%% unrealized, got %v", got.PnLPct)
	}
	if got.HighWaterPct != 0.5 {
		t.Errorf("expected high water 0.5, got %v", got.HighWaterPct)
	}

	// Pullback updates price but not the high-water mark.
	l.ApplyTick("mint-a", 1.2)
	got, _ = l.Position(p.ID)
	if got.CurrentPrice != 1.2 {
		t.Errorf("expected current price 1.2, got %v", got.CurrentPrice)
	}
	if got.HighWaterPct != 0.5 {
		t.Errorf("high water must not retreat, got %v", got.HighWaterPct)
	}

	// Other mints and non-positive prices are ignored.
	l.ApplyTick("mint-b", 9.0)
	l.ApplyTick("mint-a", 0)
	got, _ = l.Position(p.ID)
	if got.CurrentPrice != 1.2 {
		t.Errorf("unrelated ticks must not touch the position, got %v", got.CurrentPrice)
	}
}

func TestBreaker_TripsOnConsecutiveLossesPerClass(t *testing.T) {
	l := testLedger(10_000)

	// Memecoin default limit is 3 consecutive losses.
	for i := 0; i < 3; i++ {
		p, err := l.Open(openRequest("mint-a", 100))
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		l.Close(p.ID, domain.ExitReasonStopLoss, "", decimal.NewFromFloat(80))
	}

	if ok, reason := l.AllowEntry(domain.AssetMemecoin); ok {
		t.Error("memecoin breaker should be tripped after 3 losses")
	} else if reason == "" {
		t.Error("tripped breaker must carry a reason")
	}

	// Another class keeps trading.
	if ok, reason := l.AllowEntry(domain.AssetBluechip); !ok {
		t.Errorf("bluechip should still be allowed: %s", reason)
	}

	state, global := l.BreakerState(domain.AssetMemecoin)
	if !state.Tripped {
		t.Error("class breaker record should read tripped")
	}
	if global.Tripped {
		t.Error("global breaker must not trip from 3 losses")
	}

	// Daily totals are budget-relative: three 20-unit losses on a
	// 10k allocation are 0.6% of the book, not 60%.
	if global.DailyLossPct > 0.006+1e-9 {
		t.Errorf("expected budget-relative daily loss, got %v", global.DailyLossPct)
	}
}

func TestBeliefs_OnlyChainConfirmedAutoTradesCount(t *testing.T) {
	l := testLedger(10_000)

	// Auto entry with a plausible signature: counts.
	p, _ := l.Open(openRequest("mint-a", 100))
	l.Close(p.ID, domain.ExitReasonTakeProfit, validSig(), decimal.NewFromFloat(150))

	// Auto entry without a signature: dropped.
	p2, _ := l.Open(openRequest("mint-b", 100))
	l.Close(p2.ID, domain.ExitReasonTakeProfit, "", decimal.NewFromFloat(150))

	// Manual entry with a valid signature: dropped.
	manual := openRequest("mint-c", 100)
	manual.Source = domain.SourceManual
	p3, _ := l.Open(manual)
	l.Close(p3.ID, domain.ExitReasonTakeProfit, validSig(), decimal.NewFromFloat(150))

	beliefs := l.Beliefs()
	if len(beliefs) != 1 {
		t.Fatalf("expected exactly 1 belief record, got %d", len(beliefs))
	}
	if beliefs[0].StrategyID != "strat-1" || beliefs[0].Wins != 1 || beliefs[0].Total != 1 {
		t.Errorf("unexpected belief record: %+v", beliefs[0])
	}

	if pref := l.StrategyPreference("strat-1"); pref <= 0.5 {
		t.Errorf("one win should lift preference above the prior, got %v", pref)
	}
	if pref := l.StrategyPreference("unknown"); pref != 0.5 {
		t.Errorf("unknown strategy should sit at the prior mean, got %v", pref)
	}
}

func TestLedger_CustomClockStampsPositions(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	l := New(Options{
		Allocated: decimal.NewFromFloat(1000),
		Governor:  risk.NewDefaultGovernor(),
		Clock:     func() time.Time { return at },
	})

	p, err := l.Open(openRequest("mint-a", 100))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.EnteredAtMs != at.UnixMilli() {
		t.Errorf("expected entry stamp %d, got %d", at.UnixMilli(), p.EnteredAtMs)
	}

	closed, _ := l.Close(p.ID, domain.ExitReasonManual, "", decimal.NewFromFloat(100))
	if closed.ClosedAtMs != at.UnixMilli() {
		t.Errorf("expected close stamp %d, got %d", at.UnixMilli(), closed.ClosedAtMs)
	}
}
