package domain

// BacktestTrade represents one simulated trade produced by the engine.
type BacktestTrade struct {
	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64 // candle close plus slippage
	ExitPrice   float64

	GrossPnLPct float64 // before fees and slippage
	NetPnLPct   float64 // after round-trip fees and slippage
	ExitReason  string  // exactly one reason code per trade

	HoldCandles    int     // candles between entry and exit
	HighWaterPct   float64 // best gross excursion during the trade
	LowWaterPct    float64 // worst gross excursion during the trade
	MaxDrawdownPct float64 // peak-to-trough inside the trade
}

// Exit reason codes.
const (
	ExitReasonStopLoss     = "stop_loss"
	ExitReasonTakeProfit   = "take_profit"
	ExitReasonTrailingStop = "trailing_stop"
	ExitReasonTimeExpired  = "time_expired"
	ExitReasonEndOfData    = "end_of_data"

	// ExitReasonManual marks live closes requested by an operator.
	ExitReasonManual = "manual"
)

// Win reports whether the trade netted a positive return.
func (t *BacktestTrade) Win() bool {
	return t.NetPnLPct > 0
}

// BacktestResult holds aggregate metrics over one simulation run.
type BacktestResult struct {
	StrategyID  string
	SignalKind  string
	DatasetHash string // provenance hash of the candle input

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	AvgReturnPct   float64
	BestTradePct   float64
	WorstTradePct  float64
	ProfitFactor   float64
	Expectancy     float64 // avgWin*winRate - avgLoss*(1-winRate)
	MaxDrawdownPct float64 // over the compounding equity curve
	SharpeRatio    float64 // annualized proxy, clamped
	AvgHoldCandles float64

	Trades []BacktestTrade
}
