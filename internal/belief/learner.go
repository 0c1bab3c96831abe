// Package belief maintains per-strategy Bayesian win/loss counters.
// Only chain-confirmed auto-trades count as evidence: manual trades
// and unconfirmed fills must never bias the learner.
package belief

import (
	"sort"

	"solana-trading-core/internal/chainsig"
	"solana-trading-core/internal/domain"
)

// Symmetric prior: one phantom win and one phantom loss per strategy.
const (
	priorAlpha = 1.0
	priorBeta  = 1.0
)

// Learner holds strategy beliefs.
//
// Not safe for concurrent use on its own: the owning ledger serializes
// every call, so belief updates stay atomic with the close that
// produced them.
type Learner struct {
	beliefs map[string]*domain.StrategyBelief
}

// NewLearner creates an empty learner.
func NewLearner() *Learner {
	return &Learner{beliefs: make(map[string]*domain.StrategyBelief)}
}

// Qualifies reports whether a close is trustworthy evidence: the
// position was opened by the auto path and the close carries a
// plausible transaction signature.
func Qualifies(source domain.EntrySource, txSignature string) bool {
	return source == domain.SourceAuto && chainsig.Plausible(txSignature)
}

// Observe records one qualifying outcome for strategyID. Callers must
// check Qualifies first; Observe re-checks and drops non-qualifying
// evidence rather than trusting the caller.
func (l *Learner) Observe(strategyID string, source domain.EntrySource, txSignature string, win bool) bool {
	if strategyID == "" || !Qualifies(source, txSignature) {
		return false
	}

	b, ok := l.beliefs[strategyID]
	if !ok {
		b = &domain.StrategyBelief{
			StrategyID: strategyID,
			Alpha:      priorAlpha,
			Beta:       priorBeta,
		}
		l.beliefs[strategyID] = b
	}

	if win {
		b.Alpha++
		b.Wins++
	} else {
		b.Beta++
		b.Losses++
	}
	b.Total++
	return true
}

// Belief returns a copy of one strategy's belief record.
func (l *Learner) Belief(strategyID string) (domain.StrategyBelief, bool) {
	b, ok := l.beliefs[strategyID]
	if !ok {
		return domain.StrategyBelief{}, false
	}
	return *b, true
}

// Preference returns the posterior mean win probability used to bias
// strategy selection. Unknown strategies sit at the prior mean.
func (l *Learner) Preference(strategyID string) float64 {
	b, ok := l.beliefs[strategyID]
	if !ok {
		return priorAlpha / (priorAlpha + priorBeta)
	}
	return b.Mean()
}

// All returns belief copies sorted by strategy identifier.
func (l *Learner) All() []domain.StrategyBelief {
	out := make([]domain.StrategyBelief, 0, len(l.beliefs))
	for _, b := range l.beliefs {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StrategyID < out[j].StrategyID })
	return out
}
