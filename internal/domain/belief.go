package domain

// StrategyBelief is a Bayesian win/loss counter for one strategy.
// Alpha and Beta carry a symmetric prior of 1 each so a strategy with no
// evidence has a posterior mean of 0.5.
type StrategyBelief struct {
	StrategyID string
	Alpha      float64 // prior-weighted wins
	Beta       float64 // prior-weighted losses
	Wins       int
	Losses     int
	Total      int
}

// Mean returns the posterior mean win probability.
func (b *StrategyBelief) Mean() float64 {
	if b.Alpha+b.Beta == 0 {
		return 0.5
	}
	return b.Alpha / (b.Alpha + b.Beta)
}
