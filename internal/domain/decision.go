package domain

// DecisionAction classifies an execution-log record.
type DecisionAction string

// Decision action values.
const (
	ActionAdmit  DecisionAction = "admit"
	ActionReject DecisionAction = "reject"
	ActionSnipe  DecisionAction = "snipe"
	ActionSkip   DecisionAction = "skip"
)

// Decision flag values raised by the conviction scorer.
const (
	FlagPumpRisk    = "pump risk"
	FlagHighBuySell = "high buy/sell"
	FlagPumpWarning = "PUMP WARNING"
)

// Gate rejection reason codes. Rejections are expected outcomes,
// never errors.
const (
	RejectTooFresh       = "too fresh"
	RejectLowMomentum    = "momentum below minimum"
	RejectLowLiquidity   = "liquidity below minimum"
	RejectLowVolumeRatio = "volume/liquidity below minimum"
	RejectOutsideHours   = "outside trading hours"
	RejectBreakerTripped = "breaker tripped"
	RejectBudget         = "budget unavailable"
)

// ConvictionFactors is the audit breakdown behind a multiplier.
type ConvictionFactors struct {
	LiquidityBonus  float64
	TxDepthBonus    float64
	AgreementBonus  float64
	PumpPenalty     float64
	BuySellPenalty  float64
	PumpWarnPenalty float64
}

// Decision is one admit/reject outcome from the entry gate. Every
// evaluation produces a record for audit and belief learning.
type Decision struct {
	ID         string // record identifier (uuid)
	Mint       string
	Symbol     string
	AssetClass AssetClass
	Action     DecisionAction
	Reason     string // reject reason code, empty on admit

	Multiplier float64 // position-size multiplier, meaningful on admit
	Factors    ConvictionFactors
	Flags      []string

	StrategyID  string
	DecidedAtMs int64
}

// Admitted reports whether the gate allowed an open.
func (d *Decision) Admitted() bool {
	return d.Action == ActionAdmit || d.Action == ActionSnipe
}
