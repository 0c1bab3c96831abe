package domain

// BreakerRecord is one circuit-breaker state cell: either the global
// breaker or one per-asset-class breaker.
type BreakerRecord struct {
	Tripped     bool
	Reason      string
	TrippedAtMs int64 // 0 while armed

	ConsecutiveLosses int
	DailyNetPnl       float64 // signed net P&L for the day, as a fraction of the allocated budget
	DailyLossPct      float64 // max(0, -DailyNetPnl); the quantity checked against MaxDailyLossPct
	DailyResetAtMs    int64   // next UTC-midnight boundary (ms)

	CooldownUntilMs int64 // trading blocked until this time while tripped
}

// BreakerLimits holds trip thresholds for one breaker cell.
type BreakerLimits struct {
	MaxConsecutiveLosses int
	MaxDailyLossPct      float64
	CooldownMinutes      int
}
