// Package signal implements candle-driven entry predicates.
// The set of signal kinds is closed so an unhandled kind is a
// compile-time factory error, not a silent no-op.
package signal

import (
	"errors"
	"fmt"

	"solana-trading-core/internal/domain"
)

// Kind identifies one entry-signal predicate.
type Kind string

// Signal kind values.
const (
	KindRSIBand       Kind = "rsi_band"
	KindMACrossover   Kind = "ma_crossover"
	KindBreakout      Kind = "breakout"
	KindMeanReversion Kind = "mean_reversion"
)

// AllKinds returns every signal kind in stable order.
func AllKinds() []Kind {
	return []Kind{KindRSIBand, KindMACrossover, KindBreakout, KindMeanReversion}
}

// Signal decides whether the candle at index i qualifies as an entry.
// Implementations are deterministic functions of candles[:i+1] only.
type Signal interface {
	// Qualifies reports whether candles[i] fires the entry signal.
	Qualifies(candles []domain.Candle, i int) bool

	// Warmup returns the minimum candle count required before the
	// predicate can be evaluated at all.
	Warmup() int

	// Kind returns the signal identifier.
	Kind() Kind
}

// ErrUnknownKind is returned for a signal identifier outside the
// closed set.
var ErrUnknownKind = errors.New("unknown signal kind")

// FromKind creates the predicate for a signal identifier.
func FromKind(k Kind) (Signal, error) {
	switch k {
	case KindRSIBand:
		return NewRSIBand(), nil
	case KindMACrossover:
		return NewMACrossover(), nil
	case KindBreakout:
		return NewBreakout(), nil
	case KindMeanReversion:
		return NewMeanReversion(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}
