// Package risk implements the circuit-breaker risk governor: one
// global breaker plus one per asset class, tripping on consecutive
// losses or daily loss totals.
package risk

import (
	"fmt"
	"time"

	"solana-trading-core/internal/domain"
)

// Default limits. Global thresholds are deliberately looser than any
// per-class limit so one hot class never halts the whole book by
// itself.
var (
	DefaultClassLimits = [domain.NumAssetClasses]domain.BreakerLimits{
		domain.AssetMemecoin: {MaxConsecutiveLosses: 3, MaxDailyLossPct: 0.30, CooldownMinutes: 30},
		domain.AssetBags:     {MaxConsecutiveLosses: 3, MaxDailyLossPct: 0.25, CooldownMinutes: 30},
		domain.AssetBluechip: {MaxConsecutiveLosses: 5, MaxDailyLossPct: 0.15, CooldownMinutes: 60},
		domain.AssetXStock:   {MaxConsecutiveLosses: 4, MaxDailyLossPct: 0.15, CooldownMinutes: 60},
		domain.AssetIndex:    {MaxConsecutiveLosses: 5, MaxDailyLossPct: 0.12, CooldownMinutes: 60},
		domain.AssetPrestock: {MaxConsecutiveLosses: 4, MaxDailyLossPct: 0.20, CooldownMinutes: 45},
	}

	DefaultGlobalLimits = domain.BreakerLimits{
		MaxConsecutiveLosses: 8,
		MaxDailyLossPct:      0.50,
		CooldownMinutes:      120,
	}
)

// Governor maintains the global and per-class breaker records.
//
// Not safe for concurrent use on its own: the owning ledger serializes
// every call, so breaker updates stay atomic with the close that
// caused them.
type Governor struct {
	classLimits [domain.NumAssetClasses]domain.BreakerLimits
	globalLimit domain.BreakerLimits

	cells  [domain.NumAssetClasses]domain.BreakerRecord
	global domain.BreakerRecord
}

// NewGovernor creates a governor with the given limits.
func NewGovernor(classLimits [domain.NumAssetClasses]domain.BreakerLimits, globalLimit domain.BreakerLimits) *Governor {
	return &Governor{
		classLimits: classLimits,
		globalLimit: globalLimit,
	}
}

// NewDefaultGovernor creates a governor with the default limits.
func NewDefaultGovernor() *Governor {
	return NewGovernor(DefaultClassLimits, DefaultGlobalLimits)
}

// Allow reports whether entries for class are currently permitted.
// Both the class breaker and the global breaker must be clear. A
// breaker whose cooldown has elapsed is auto-reset here, on read; no
// background timer exists.
func (g *Governor) Allow(class domain.AssetClass, nowMs int64) (bool, string) {
	g.maybeReset(&g.cells[class], nowMs)
	g.maybeReset(&g.global, nowMs)

	if g.cells[class].Tripped {
		return false, fmt.Sprintf("%s breaker: %s", class, g.cells[class].Reason)
	}
	if g.global.Tripped {
		return false, fmt.Sprintf("global breaker: %s", g.global.Reason)
	}
	return true, ""
}

// RecordClose applies one closed trade's outcome to the class breaker
// and the global breaker independently. pnlFrac is the trade's net
// P&L as a fraction of the allocated budget; wins offset losses in
// the daily total. A win also resets consecutive-loss counts but
// never clears an active cooldown early.
func (g *Governor) RecordClose(class domain.AssetClass, pnlFrac float64, nowMs int64) {
	g.apply(&g.cells[class], g.classLimits[class], pnlFrac, nowMs)
	g.apply(&g.global, g.globalLimit, pnlFrac, nowMs)
}

// ClassState returns a copy of one class breaker record.
func (g *Governor) ClassState(class domain.AssetClass, nowMs int64) domain.BreakerRecord {
	g.maybeReset(&g.cells[class], nowMs)
	return g.cells[class]
}

// GlobalState returns a copy of the global breaker record.
func (g *Governor) GlobalState(nowMs int64) domain.BreakerRecord {
	g.maybeReset(&g.global, nowMs)
	return g.global
}

func (g *Governor) apply(cell *domain.BreakerRecord, limits domain.BreakerLimits, pnlFrac float64, nowMs int64) {
	g.rollDay(cell, nowMs)

	cell.DailyNetPnl += pnlFrac
	cell.DailyLossPct = 0
	if cell.DailyNetPnl < 0 {
		cell.DailyLossPct = -cell.DailyNetPnl
	}

	if pnlFrac > 0 {
		cell.ConsecutiveLosses = 0
		return
	}

	cell.ConsecutiveLosses++

	if cell.Tripped {
		return
	}

	switch {
	case limits.MaxConsecutiveLosses > 0 && cell.ConsecutiveLosses >= limits.MaxConsecutiveLosses:
		g.trip(cell, nowMs, limits,
			fmt.Sprintf("%d consecutive losses", cell.ConsecutiveLosses))
	case limits.MaxDailyLossPct > 0 && cell.DailyLossPct >= limits.MaxDailyLossPct:
		g.trip(cell, nowMs, limits,
			fmt.Sprintf("daily loss %.1f%% reached limit", cell.DailyLossPct*100))
	}
}

func (g *Governor) trip(cell *domain.BreakerRecord, nowMs int64, limits domain.BreakerLimits, reason string) {
	cell.Tripped = true
	cell.Reason = reason
	cell.TrippedAtMs = nowMs
	cell.CooldownUntilMs = nowMs + int64(limits.CooldownMinutes)*60_000
}

// maybeReset re-arms a tripped cell whose cooldown elapsed.
// Consecutive losses zero out; the daily total survives until its own
// daily boundary.
func (g *Governor) maybeReset(cell *domain.BreakerRecord, nowMs int64) {
	g.rollDay(cell, nowMs)

	if cell.Tripped && nowMs > cell.CooldownUntilMs {
		cell.Tripped = false
		cell.Reason = ""
		cell.TrippedAtMs = 0
		cell.CooldownUntilMs = 0
		cell.ConsecutiveLosses = 0
	}
}

// rollDay clears the daily loss total at each UTC midnight boundary.
func (g *Governor) rollDay(cell *domain.BreakerRecord, nowMs int64) {
	if cell.DailyResetAtMs == 0 {
		cell.DailyResetAtMs = nextUTCMidnightMs(nowMs)
		return
	}
	if nowMs >= cell.DailyResetAtMs {
		cell.DailyNetPnl = 0
		cell.DailyLossPct = 0
		cell.DailyResetAtMs = nextUTCMidnightMs(nowMs)
	}
}

func nextUTCMidnightMs(nowMs int64) int64 {
	t := time.UnixMilli(nowMs).UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.UnixMilli()
}
