// Package metrics provides Prometheus instrumentation for backtest runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics owns its registry so that several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	// RunsTotal counts backtest runs by strategy and outcome.
	RunsTotal *prometheus.CounterVec
	// RunDuration tracks the wall time of one simulation.
	RunDuration *prometheus.HistogramVec
	// TradesTotal counts ledger entries by strategy.
	TradesTotal *prometheus.CounterVec
	// SkippedSignalsTotal counts sell signals downgraded by the buy-first rule.
	SkippedSignalsTotal *prometheus.CounterVec
	// PairsAnalyzedTotal counts pair analytics requests by stationarity.
	PairsAnalyzedTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of backtest runs",
		}, []string{"strategy", "outcome"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"strategy"}),
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Total number of simulated trades",
		}, []string{"strategy"}),
		SkippedSignalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_skipped_signals_total",
			Help: "Sell signals skipped by the buy-first rule",
		}, []string{"strategy"}),
		PairsAnalyzedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_pairs_analyzed_total",
			Help: "Pair analytics computed",
		}, []string{"stationary"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backtest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one simulator run. Reportable errors count as skipped.
func (m *Metrics) ObserveRun(strategyID string, result types.BacktestResult, elapsed time.Duration, err error) {
	outcome := OutcomeCompleted

	switch {
	case err != nil && errors.IsReportable(err):
		outcome = OutcomeSkipped
	case err != nil:
		outcome = OutcomeFailed
	}

	m.RunsTotal.WithLabelValues(strategyID, outcome).Inc()
	m.RunDuration.WithLabelValues(strategyID).Observe(elapsed.Seconds())

	if err == nil {
		m.TradesTotal.WithLabelValues(strategyID).Add(float64(result.TotalTrades))
		m.SkippedSignalsTotal.WithLabelValues(strategyID).Add(float64(result.SkippedSignals))
	}
}

// ObservePair records one pair analytics computation.
func (m *Metrics) ObservePair(analytics types.PairAnalytics) {
	m.PairsAnalyzedTotal.WithLabelValues(strconv.FormatBool(analytics.IsStationaryPair)).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware returns an HTTP middleware that records request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
