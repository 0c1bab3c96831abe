package reporting

// Payload is the machine-readable body of a tuning report. It is
// serialized as JSON and stored next to the markdown summary.
type Payload struct {
	RunID      string `json:"run_id"`
	SignalKind string `json:"signal_kind"`

	Selected      ConfigRow `json:"selected"`
	LowConfidence bool      `json:"low_confidence"`

	Stage1 []MetricRow `json:"stage1"`
	Stage2 []MetricRow `json:"stage2"`

	DatasetHashes map[string]string `json:"dataset_hashes"`
	SkippedAssets map[string]string `json:"skipped_assets,omitempty"`

	GeneratedAtMs int64 `json:"generated_at_ms"`
}

// ConfigRow is a strategy config flattened for serialization.
type ConfigRow struct {
	ConfigID        string  `json:"config_id"`
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`
	MaxHoldCandles  int     `json:"max_hold_candles"`
	SlippagePct     float64 `json:"slippage_pct"`
	FeePct          float64 `json:"fee_pct"`
}

// MetricRow is one sweep cell's aggregated performance.
type MetricRow struct {
	ConfigID       string  `json:"config_id"`
	TotalTrades    int     `json:"total_trades"`
	WinRate        float64 `json:"win_rate"`
	Expectancy     float64 `json:"expectancy"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	AssetsCovered  int     `json:"assets_covered"`
}
