// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Gate metrics
	GateDecisions  *prometheus.CounterVec
	GateMultiplier prometheus.Histogram

	// Ledger metrics
	PositionsOpened     *prometheus.CounterVec
	PositionsClosed     *prometheus.CounterVec
	PositionsReconciled *prometheus.CounterVec
	OpenPositions       prometheus.Gauge
	BudgetSpent         prometheus.Gauge

	// Risk metrics
	BreakerTrips  *prometheus.CounterVec
	BreakerResets *prometheus.CounterVec

	// Belief metrics
	BeliefUpdates  prometheus.Counter
	BeliefRejected prometheus.Counter

	// Tuner metrics
	TuningRunsTotal prometheus.Counter
	TuningDuration  prometheus.Histogram
	CellsEvaluated  prometheus.Counter

	// Provider metrics
	ProviderFetchLatency *prometheus.HistogramVec
	ProviderFetchErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulTick prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_trading_core"
	}

	return &Metrics{
		// Gate metrics
		GateDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Total number of gate decisions by action and asset class",
		}, []string{"action", "asset_class"}),
		GateMultiplier: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "multiplier",
			Help:      "Position-size multiplier distribution on admitted entries",
			Buckets:   []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0, 2.5},
		}),

		// Ledger metrics
		PositionsOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_opened_total",
			Help:      "Total number of positions opened by source",
		}, []string{"source"}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_closed_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"exit_reason"}),
		PositionsReconciled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positions_reconciled_total",
			Help:      "Total number of positions reconciled by reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		BudgetSpent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "budget_spent",
			Help:      "Budget currently committed to open positions",
		}),

		// Risk metrics
		BreakerTrips: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "breaker_trips_total",
			Help:      "Total number of circuit breaker trips by scope and reason",
		}, []string{"scope", "reason"}),
		BreakerResets: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "breaker_resets_total",
			Help:      "Total number of circuit breaker cooldown resets by scope",
		}, []string{"scope"}),

		// Belief metrics
		BeliefUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "belief",
			Name:      "updates_total",
			Help:      "Total number of accepted belief observations",
		}),
		BeliefRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "belief",
			Name:      "rejected_total",
			Help:      "Total number of observations rejected by the qualifying gate",
		}),

		// Tuner metrics
		TuningRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tuner",
			Name:      "runs_total",
			Help:      "Total number of tuning runs",
		}),
		TuningDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tuner",
			Name:      "run_duration_seconds",
			Help:      "Tuning run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CellsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tuner",
			Name:      "cells_evaluated_total",
			Help:      "Total number of sweep cells evaluated",
		}),

		// Provider metrics
		ProviderFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_latency_seconds",
			Help:      "Market data fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ProviderFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_errors_total",
			Help:      "Total number of market data fetch errors",
		}, []string{"operation", "error_type"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulTick: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of the last applied price tick",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDecision records a gate decision.
func RecordDecision(action, assetClass string, multiplier float64, admitted bool) {
	DefaultMetrics.GateDecisions.WithLabelValues(action, assetClass).Inc()
	if admitted {
		DefaultMetrics.GateMultiplier.Observe(multiplier)
	}
}

// RecordOpen increments the opened positions counter.
func RecordOpen(source string) {
	DefaultMetrics.PositionsOpened.WithLabelValues(source).Inc()
}

// RecordClose increments the closed positions counter.
func RecordClose(exitReason string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(exitReason).Inc()
}

// RecordReconcile increments the reconciled positions counter.
func RecordReconcile(reason string) {
	DefaultMetrics.PositionsReconciled.WithLabelValues(reason).Inc()
}

// RecordBreakerTrip records a circuit breaker trip.
func RecordBreakerTrip(scope, reason string) {
	DefaultMetrics.BreakerTrips.WithLabelValues(scope, reason).Inc()
}

// RecordBreakerReset records a circuit breaker cooldown reset.
func RecordBreakerReset(scope string) {
	DefaultMetrics.BreakerResets.WithLabelValues(scope).Inc()
}

// RecordBeliefObservation records a belief learner observation.
func RecordBeliefObservation(accepted bool) {
	if accepted {
		DefaultMetrics.BeliefUpdates.Inc()
	} else {
		DefaultMetrics.BeliefRejected.Inc()
	}
}

// RecordTuningRun records a completed tuning run.
func RecordTuningRun(durationSeconds float64, cells int) {
	DefaultMetrics.TuningRunsTotal.Inc()
	DefaultMetrics.TuningDuration.Observe(durationSeconds)
	DefaultMetrics.CellsEvaluated.Add(float64(cells))
}

// RecordProviderFetch records market data fetch metrics.
func RecordProviderFetch(operation string, seconds float64, err error) {
	DefaultMetrics.ProviderFetchLatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.ProviderFetchErrors.WithLabelValues(operation, "fetch").Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
