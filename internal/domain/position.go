package domain

import "github.com/shopspring/decimal"

// EntrySource identifies how a position was opened.
type EntrySource string

// Entry source values.
const (
	SourceAuto   EntrySource = "auto"
	SourceManual EntrySource = "manual"
)

// PositionStatus is the position lifecycle state.
type PositionStatus string

// Position status values. Closed records are retained for audit
// and belief learning, never deleted.
const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// ReconcileReason records why a position was reconciled instead of closed.
type ReconcileReason string

// Reconcile reason values.
const (
	// ReconcileNone marks a position that was never reconciled.
	ReconcileNone ReconcileReason = ""
	// ReconcileBuyUnresolved marks a buy that never confirmed on-chain.
	// Committed budget is released because the spend was never real.
	ReconcileBuyUnresolved ReconcileReason = "buy_unresolved"
	// ReconcileManualOnly marks a manually managed position with no
	// matching on-chain balance. No budget release: it was never funded
	// through this ledger's spend counter.
	ReconcileManualOnly ReconcileReason = "manual_only"
	// ReconcileChainSync marks a position recovered from on-chain state.
	// No budget release, same reasoning as manual_only.
	ReconcileChainSync ReconcileReason = "chain_sync"
)

// Position is one ledger entry for an open or closed trade.
type Position struct {
	ID         string      // ledger identifier (uuid)
	Mint       string      // asset mint address
	Symbol     string      // display symbol
	AssetClass AssetClass  // breaker risk bucket
	Source     EntrySource // auto or manual
	StrategyID string      // empty for manual entries

	EntryPrice   float64
	CurrentPrice float64
	Quantity     float64
	Committed    decimal.Decimal // budget committed at open

	PnLPct       float64         // unrealized while open, realized at close
	PnLAbs       decimal.Decimal // absolute P&L in budget units
	HighWaterPct float64         // best PnLPct observed since entry

	// Exit parameters recommended by the tuner at open time.
	StopLossPct     float64
	TakeProfitPct   float64
	TrailingStopPct float64 // 0 disables trailing

	// OnChainExits reports whether the execution collaborator manages
	// stop-loss/take-profit on-chain. Forced false at open unless the
	// collaborator has verifiably confirmed support.
	OnChainExits bool

	Status      PositionStatus
	ExitReason  string // exit reason code, set at close
	TxSignature string // confirmation signature supplied at close, if any

	Reconciled      bool
	ReconcileReason ReconcileReason

	EnteredAtMs int64 // entry timestamp (ms)
	ClosedAtMs  int64 // close or reconcile timestamp (ms), 0 while open
}

// IsOpen reports whether the position still holds committed budget.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// Win reports whether a closed position realized a positive return.
func (p *Position) Win() bool {
	return p.Status == StatusClosed && p.PnLPct > 0
}
