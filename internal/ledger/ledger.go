// Package ledger owns the authoritative position list and the
// spendable-budget counter. The ledger, the risk governor, and the
// belief learner form one logically single-threaded state machine: a
// single mutex serializes open, close, reconcile, and tick handling,
// so every cross-cutting update lands atomically with the position
// mutation that caused it.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solana-trading-core/internal/belief"
	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/risk"
)

// Ledger errors. Gate rejections and retries of finished positions are
// not errors; only operations that would corrupt state fail.
var (
	ErrBudgetUnauthorized = errors.New("budget not authorized")
	ErrBudgetExceeded     = errors.New("spend would exceed allocated budget")
	ErrInvalidPosition    = errors.New("invalid position")
)

// Sink receives position lifecycle events for audit, persistence, and
// the UI activity feed. Called outside the ledger lock.
type Sink interface {
	PositionOpened(p domain.Position)
	PositionClosed(p domain.Position)
	PositionReconciled(p domain.Position)
}

// Ledger is the owned-state object passed through gate → open → close.
type Ledger struct {
	mu sync.Mutex

	budget    domain.Budget
	positions map[string]*domain.Position
	order     []string // insertion order, for stable listings

	governor *risk.Governor
	learner  *belief.Learner

	// onChainExitsSupported stays false until the execution
	// collaborator verifiably confirms on-chain SL/TP support. Open
	// always forces the position flag down to this value.
	onChainExitsSupported bool

	now  func() time.Time
	sink Sink
}

// Options configures a Ledger.
type Options struct {
	Allocated decimal.Decimal
	Governor  *risk.Governor
	Learner   *belief.Learner
	Sink      Sink
	Clock     func() time.Time
}

// New creates an authorized ledger with the given allocation.
func New(opts Options) *Ledger {
	gov := opts.Governor
	if gov == nil {
		gov = risk.NewDefaultGovernor()
	}
	lrn := opts.Learner
	if lrn == nil {
		lrn = belief.NewLearner()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		budget: domain.Budget{
			Authorized: true,
			Allocated:  opts.Allocated,
		},
		positions: make(map[string]*domain.Position),
		governor:  gov,
		learner:   lrn,
		now:       clock,
		sink:      opts.Sink,
	}
}

// OpenRequest carries everything needed to open a position.
type OpenRequest struct {
	Mint       string
	Symbol     string
	AssetClass domain.AssetClass
	Source     domain.EntrySource
	StrategyID string

	EntryPrice float64
	Quantity   float64
	Committed  decimal.Decimal

	StopLossPct     float64
	TakeProfitPct   float64
	TrailingStopPct float64

	// OnChainExits is stripped unless the ledger has confirmed
	// collaborator support; callers cannot re-enable it themselves.
	OnChainExits bool
}

// Open creates a position and commits budget. Fails if the budget is
// unauthorized or the spend would exceed the allocation.
func (l *Ledger) Open(req OpenRequest) (domain.Position, error) {
	if req.Mint == "" || !req.AssetClass.Valid() || req.Committed.Sign() <= 0 {
		return domain.Position{}, ErrInvalidPosition
	}

	l.mu.Lock()
	if !l.budget.Authorized {
		l.mu.Unlock()
		return domain.Position{}, ErrBudgetUnauthorized
	}
	if !l.budget.CanSpend(req.Committed) {
		l.mu.Unlock()
		return domain.Position{}, ErrBudgetExceeded
	}

	nowMs := l.now().UnixMilli()
	p := &domain.Position{
		ID:              uuid.NewString(),
		Mint:            req.Mint,
		Symbol:          req.Symbol,
		AssetClass:      req.AssetClass,
		Source:          req.Source,
		StrategyID:      req.StrategyID,
		EntryPrice:      req.EntryPrice,
		CurrentPrice:    req.EntryPrice,
		Quantity:        req.Quantity,
		Committed:       req.Committed,
		PnLAbs:          decimal.Zero,
		StopLossPct:     req.StopLossPct,
		TakeProfitPct:   req.TakeProfitPct,
		TrailingStopPct: req.TrailingStopPct,
		OnChainExits:    req.OnChainExits && l.onChainExitsSupported,
		Status:          domain.StatusOpen,
		EnteredAtMs:     nowMs,
	}

	l.budget.Spent = l.budget.Spent.Add(req.Committed)
	l.positions[p.ID] = p
	l.order = append(l.order, p.ID)
	snapshot := *p
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.PositionOpened(snapshot)
	}
	return snapshot, nil
}

// Close marks a position closed, realizes P&L from proceeds, releases
// committed budget, and fans the outcome out to the breaker governor
// and, for chain-confirmed auto entries, the belief learner. A second
// call on a finished position is a no-op.
func (l *Ledger) Close(positionID, exitReason, txSignature string, proceeds decimal.Decimal) (domain.Position, bool) {
	l.mu.Lock()
	p, ok := l.positions[positionID]
	if !ok || p.Status == domain.StatusClosed {
		var snap domain.Position
		if ok {
			snap = *p
		}
		l.mu.Unlock()
		return snap, false
	}

	nowMs := l.now().UnixMilli()
	p.Status = domain.StatusClosed
	p.ExitReason = exitReason
	p.TxSignature = txSignature
	p.ClosedAtMs = nowMs

	p.PnLAbs = proceeds.Sub(p.Committed)
	if p.Committed.Sign() > 0 {
		pct, _ := proceeds.Div(p.Committed).Float64()
		p.PnLPct = pct - 1
	}
	if p.Quantity > 0 {
		qty := decimal.NewFromFloat(p.Quantity)
		p.CurrentPrice, _ = proceeds.Div(qty).Float64()
	}

	l.releaseLocked(p.Committed)

	// Breaker sees every counted close, with P&L scaled to the
	// allocated budget; belief only chain-confirmed auto entries.
	pnlFrac := p.PnLPct
	if l.budget.Allocated.Sign() > 0 {
		pnlFrac, _ = p.PnLAbs.Div(l.budget.Allocated).Float64()
	}
	l.governor.RecordClose(p.AssetClass, pnlFrac, nowMs)
	l.learner.Observe(p.StrategyID, p.Source, txSignature, p.PnLPct > 0)

	snapshot := *p
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.PositionClosed(snapshot)
	}
	return snapshot, true
}

// Reconcile closes a position without counting it as a trading
// outcome, used when on-chain state disagrees with the ledger.
// Committed budget is released only for buy_unresolved rows: manual
// and chain-sync rows were never funded through this ledger's spend
// counter, so releasing them would corrupt the budget. Idempotent per
// position.
func (l *Ledger) Reconcile(positionID string, reason domain.ReconcileReason) (domain.Position, bool) {
	l.mu.Lock()
	p, ok := l.positions[positionID]
	if !ok || p.Status == domain.StatusClosed {
		var snap domain.Position
		if ok {
			snap = *p
		}
		l.mu.Unlock()
		return snap, false
	}

	p.Status = domain.StatusClosed
	p.Reconciled = true
	p.ReconcileReason = reason
	p.ClosedAtMs = l.now().UnixMilli()

	if reason == domain.ReconcileBuyUnresolved {
		l.releaseLocked(p.Committed)
	}

	snapshot := *p
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.PositionReconciled(snapshot)
	}
	return snapshot, true
}

// ApplyTick updates current price, unrealized P&L, and high-water mark
// on every open position for mint. Ticks arrive asynchronously from
// the market-data collaborator and serialize through the same lock as
// the mutating operations.
func (l *Ledger) ApplyTick(mint string, price float64) {
	if price <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.order {
		p := l.positions[id]
		if p.Status != domain.StatusOpen || p.Mint != mint {
			continue
		}
		p.CurrentPrice = price
		if p.EntryPrice > 0 {
			p.PnLPct = price/p.EntryPrice - 1
			p.PnLAbs = p.Committed.Mul(decimal.NewFromFloat(p.PnLPct))
			if p.PnLPct > p.HighWaterPct {
				p.HighWaterPct = p.PnLPct
			}
		}
	}
}

// releaseLocked returns committed budget to the pool. Spent never goes
// negative, even if recovery replays a release.
func (l *Ledger) releaseLocked(amount decimal.Decimal) {
	l.budget.Spent = l.budget.Spent.Sub(amount)
	if l.budget.Spent.Sign() < 0 {
		l.budget.Spent = decimal.Zero
	}
}

// AllowEntry consults the per-class and global breakers, lazily
// resetting any whose cooldown elapsed. Exposed to the entry gate so
// breaker reads serialize with close fan-outs.
func (l *Ledger) AllowEntry(class domain.AssetClass) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.governor.Allow(class, l.now().UnixMilli())
}

// Budget returns a copy of the budget counter.
func (l *Ledger) Budget() domain.Budget {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.budget
}

// Position returns a copy of one position.
func (l *Ledger) Position(id string) (domain.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[id]
	if !ok {
		return domain.Position{}, false
	}
	return *p, true
}

// Positions returns copies of all positions in open order.
func (l *Ledger) Positions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.positions[id])
	}
	return out
}

// OpenPositions returns copies of positions still holding budget.
func (l *Ledger) OpenPositions() []domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Position, 0)
	for _, id := range l.order {
		if p := l.positions[id]; p.Status == domain.StatusOpen {
			out = append(out, *p)
		}
	}
	return out
}

// StrategyPreference exposes the learner's posterior mean for biasing
// strategy choice.
func (l *Ledger) StrategyPreference(strategyID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.learner.Preference(strategyID)
}

// Beliefs returns copies of all strategy belief records.
func (l *Ledger) Beliefs() []domain.StrategyBelief {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.learner.All()
}

// BreakerState returns copies of the class and global breaker records.
func (l *Ledger) BreakerState(class domain.AssetClass) (domain.BreakerRecord, domain.BreakerRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nowMs := l.now().UnixMilli()
	return l.governor.ClassState(class, nowMs), l.governor.GlobalState(nowMs)
}

// ConfirmOnChainExitSupport re-enables on-chain SL/TP flags for future
// opens. Only the verified collaborator path calls this.
func (l *Ledger) ConfirmOnChainExitSupport() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChainExitsSupported = true
}
