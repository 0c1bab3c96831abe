package domain

// TuningReport is the persisted artifact of one tuning run, keyed by
// run identifier for reproducibility. PayloadJSON carries the full
// machine-readable result; SummaryMarkdown is the human-readable
// table.
type TuningReport struct {
	RunID         string
	SignalKind    string
	Selected      StrategyConfig
	LowConfidence bool

	SummaryMarkdown string
	PayloadJSON     []byte

	GeneratedAtMs int64
}
