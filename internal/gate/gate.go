// Package gate implements the conviction scorer and entry gate: the
// only path that may admit a new position. Rejections are expected
// outcomes carried as decision records, never errors.
package gate

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"solana-trading-core/internal/domain"
	"solana-trading-core/internal/logging"
)

// Multiplier bounds and penalty constants.
const (
	baseMultiplier  = 1.0
	floorMultiplier = 0.5

	pumpRiskChange1h   = 2.0 // +200% in one hour
	pumpRiskPenalty    = 0.20
	highBuySellRatio   = 3.0
	highBuySellPenalty = 0.15
	pumpWarnVLR        = 5.0
	pumpWarnChange1h   = 1.0 // +100% in one hour
	pumpWarnFactor     = 0.30
)

// Config holds gate thresholds.
type Config struct {
	MinAgeMinutes float64 // freshness gate
	MaxMultiplier float64

	// Threshold gating; disabled means only freshness and breakers
	// apply.
	ThresholdsEnabled       bool
	MinPriceChange1h        float64
	MinLiquidityUSD         float64
	MinVolumeLiquidityRatio float64

	// Trading hours in UTC; disabled means always open.
	HoursEnabled bool
	StartHourUTC int
	EndHourUTC   int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MinAgeMinutes:           2,
		MaxMultiplier:           2.5,
		ThresholdsEnabled:       true,
		MinPriceChange1h:        0.05,
		MinLiquidityUSD:         50_000,
		MinVolumeLiquidityRatio: 0.5,
	}
}

// RiskChecker consults the breaker governor. Implemented by the
// ledger so breaker reads serialize with close fan-outs.
type RiskChecker interface {
	AllowEntry(class domain.AssetClass) (bool, string)
}

// Sink receives every decision record for audit and the UI activity
// feed.
type Sink interface {
	Publish(domain.Decision)
}

// Gate evaluates live token snapshots against configured thresholds.
type Gate struct {
	cfg  Config
	risk RiskChecker
	sink Sink
	log  *logrus.Entry
	now  func() time.Time
}

// New creates a gate. sink may be nil.
func New(cfg Config, risk RiskChecker, sink Sink) *Gate {
	return &Gate{
		cfg:  cfg,
		risk: risk,
		sink: sink,
		log:  logging.L().WithField("component", "gate"),
		now:  time.Now,
	}
}

// WithClock sets a custom clock, for deterministic tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Evaluate returns the admit/reject decision for one snapshot.
// Order: breakers, freshness, thresholds and hours, then conviction
// scoring. Every decision is logged and published.
func (g *Gate) Evaluate(snap domain.TokenSnapshot, strategyID string) domain.Decision {
	now := g.now()
	d := domain.Decision{
		ID:          uuid.New().String(),
		Mint:        snap.Mint,
		Symbol:      snap.Symbol,
		AssetClass:  snap.AssetClass,
		StrategyID:  strategyID,
		DecidedAtMs: now.UnixMilli(),
	}

	if ok, reason := g.risk.AllowEntry(snap.AssetClass); !ok {
		d.Action = domain.ActionReject
		d.Reason = domain.RejectBreakerTripped + ": " + reason
		return g.emit(d)
	}

	if snap.AgeMinutes < g.cfg.MinAgeMinutes {
		d.Action = domain.ActionReject
		d.Reason = domain.RejectTooFresh
		return g.emit(d)
	}

	if g.cfg.ThresholdsEnabled {
		switch {
		case snap.PriceChange1h < g.cfg.MinPriceChange1h:
			d.Action = domain.ActionReject
			d.Reason = domain.RejectLowMomentum
			return g.emit(d)
		case snap.LiquidityUSD < g.cfg.MinLiquidityUSD:
			d.Action = domain.ActionReject
			d.Reason = domain.RejectLowLiquidity
			return g.emit(d)
		case snap.VolumeLiquidityRatio() < g.cfg.MinVolumeLiquidityRatio:
			d.Action = domain.ActionReject
			d.Reason = domain.RejectLowVolumeRatio
			return g.emit(d)
		}
	}

	if g.cfg.HoursEnabled && !g.withinHours(now) {
		d.Action = domain.ActionReject
		d.Reason = domain.RejectOutsideHours
		return g.emit(d)
	}

	d.Action = domain.ActionAdmit
	d.Multiplier, d.Factors, d.Flags = g.score(snap)
	return g.emit(d)
}

// score computes the position-size multiplier from a 1.0 baseline:
// bonuses for depth and timeframe agreement, penalties for pump-shaped
// tape, clamped to [floor, configured max].
func (g *Gate) score(snap domain.TokenSnapshot) (float64, domain.ConvictionFactors, []string) {
	var f domain.ConvictionFactors
	var flags []string
	m := baseMultiplier

	switch {
	case snap.LiquidityUSD >= 250_000:
		f.LiquidityBonus = 0.2
	case snap.LiquidityUSD >= 100_000:
		f.LiquidityBonus = 0.1
	}
	m += f.LiquidityBonus

	txCount := snap.Buys1h + snap.Sells1h
	switch {
	case txCount >= 300:
		f.TxDepthBonus = 0.2
	case txCount >= 100:
		f.TxDepthBonus = 0.1
	}
	m += f.TxDepthBonus

	if snap.PriceChange1h > 0 && snap.PriceChange24h > 0 {
		f.AgreementBonus = 0.15
		m += f.AgreementBonus
	}

	if snap.PriceChange1h > pumpRiskChange1h {
		f.PumpPenalty = -pumpRiskPenalty
		m += f.PumpPenalty
		flags = append(flags, domain.FlagPumpRisk)
	}

	if snap.BuySellRatio() > highBuySellRatio {
		f.BuySellPenalty = -highBuySellPenalty
		m += f.BuySellPenalty
		flags = append(flags, domain.FlagHighBuySell)
	}

	if snap.VolumeLiquidityRatio() > pumpWarnVLR && snap.PriceChange1h > pumpWarnChange1h {
		f.PumpWarnPenalty = -pumpWarnFactor
		m *= 1 - pumpWarnFactor
		flags = append(flags, domain.FlagPumpWarning)
	}

	if m > g.cfg.MaxMultiplier {
		m = g.cfg.MaxMultiplier
	}
	if m < floorMultiplier {
		m = floorMultiplier
	}
	return m, f, flags
}

func (g *Gate) withinHours(now time.Time) bool {
	h := now.UTC().Hour()
	if g.cfg.StartHourUTC <= g.cfg.EndHourUTC {
		return h >= g.cfg.StartHourUTC && h < g.cfg.EndHourUTC
	}
	// Window wraps midnight.
	return h >= g.cfg.StartHourUTC || h < g.cfg.EndHourUTC
}

// emit logs and publishes a decision, then returns it unchanged.
func (g *Gate) emit(d domain.Decision) domain.Decision {
	entry := g.log.WithFields(logrus.Fields{
		"mint":       d.Mint,
		"symbol":     d.Symbol,
		"class":      d.AssetClass.String(),
		"action":     string(d.Action),
		"multiplier": d.Multiplier,
		"flags":      d.Flags,
	})
	if d.Admitted() {
		entry.Info("entry admitted")
	} else {
		entry.WithField("reason", d.Reason).Info("entry rejected")
	}

	if g.sink != nil {
		g.sink.Publish(d)
	}
	return d
}
