package domain

import "github.com/shopspring/decimal"

// Budget is the spendable-budget counter owned by the ledger.
// Invariant: Spent <= Allocated whenever Authorized; Spent only grows on
// open and only shrinks on close or reconcile-with-release.
type Budget struct {
	Authorized bool
	Allocated  decimal.Decimal
	Spent      decimal.Decimal
}

// Available returns the budget remaining for new positions.
func (b *Budget) Available() decimal.Decimal {
	if !b.Authorized {
		return decimal.Zero
	}
	return b.Allocated.Sub(b.Spent)
}

// CanSpend reports whether amount fits in the remaining budget.
func (b *Budget) CanSpend(amount decimal.Decimal) bool {
	return b.Authorized && amount.Sign() > 0 && b.Spent.Add(amount).LessThanOrEqual(b.Allocated)
}
