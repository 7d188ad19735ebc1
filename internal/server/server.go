// Package server exposes the backtest service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/comparator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/metrics"
	"github.com/rxtech-lab/argo-backtest/internal/service"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/growth"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
)

// Backtester is the part of the service the HTTP API needs.
type Backtester interface {
	Strategies() []strategy.StrategyID
	RunBacktest(ctx context.Context, req service.BacktestRequest) (types.BacktestResult, error)
	CompareStrategies(ctx context.Context, req service.CompareRequest, onProgress comparator.OnProgress) (types.Comparison, error)
	SweepCapital(ctx context.Context, req service.SweepRequest, onProgress comparator.OnProgress) ([]types.CalculatorRow, error)
	AnalyzePairs(ctx context.Context, req service.PairRequest) ([]types.PairAnalytics, error)
}

type Server struct {
	backtester Backtester
	metrics    *metrics.Metrics
	logger     *logger.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server. m may be nil, in which case /metrics is not served.
func NewServer(backtester Backtester, m *metrics.Metrics, log *logger.Logger) *Server {
	return &Server{
		backtester: backtester,
		metrics:    m,
		logger:     log,
		httpServer: nil,
		listener:   nil,
	}
}

// Router returns the HTTP routes of the API.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	if s.metrics != nil {
		router.Use(s.metrics.Middleware)
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/strategies", s.handleStrategies).Methods(http.MethodGet)
	router.HandleFunc("/providers", s.handleProviders).Methods(http.MethodGet)
	router.HandleFunc("/backtests", s.handleBacktest).Methods(http.MethodPost)
	router.HandleFunc("/comparisons", s.handleCompare).Methods(http.MethodPost)
	router.HandleFunc("/sweeps", s.handleSweep).Methods(http.MethodPost)
	router.HandleFunc("/pairs", s.handlePairs).Methods(http.MethodPost)
	router.HandleFunc("/growth", s.handleGrowth).Methods(http.MethodPost)

	return router
}

// Start listens on address and serves in the background.
// An empty address or ":0" picks a random port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the address the server listens on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]strategy.StrategyID{"strategies": s.backtester.Strategies()})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	providers := make([]marketdata.ProviderInfo, 0)

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			continue
		}

		providers = append(providers, info)
	}

	writeJSON(w, http.StatusOK, map[string][]marketdata.ProviderInfo{"providers": providers})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req service.BacktestRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.backtester.RunBacktest(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req service.CompareRequest
	if !s.decode(w, r, &req) {
		return
	}

	comparison, err := s.backtester.CompareStrategies(r.Context(), req, nil)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req service.SweepRequest
	if !s.decode(w, r, &req) {
		return
	}

	rows, err := s.backtester.SweepCapital(r.Context(), req, nil)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string][]types.CalculatorRow{"rows": rows})
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	var req service.PairRequest
	if !s.decode(w, r, &req) {
		return
	}

	pairs, err := s.backtester.AnalyzePairs(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string][]types.PairAnalytics{"pairs": pairs})
}

// handleGrowth scores the posted fundamentals. Nothing is fetched.
func (s *Server) handleGrowth(w http.ResponseWriter, r *http.Request) {
	var fundamentals growth.Fundamentals
	if !s.decode(w, r, &fundamentals) {
		return
	}

	writeJSON(w, http.StatusOK, growth.Analyze(fundamentals))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return false
	}

	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := StatusFor(code)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Int("code", int(code)), zap.Error(err))
	}

	writeJSON(w, status, map[string]any{"error": err.Error(), "code": code})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidParameter, errors.ErrCodeMissingParameter, errors.ErrCodeInvalidCapital,
		errors.ErrCodeInvalidStopLoss, errors.ErrCodeInvalidPeriod, errors.ErrCodeBacktestConfigError,
		errors.ErrCodeStrategyConfigError:
		return http.StatusBadRequest
	case errors.ErrCodeSymbolNotFound, errors.ErrCodeUnsupportedStrategy, errors.ErrCodeCostProfileNotFound,
		errors.ErrCodeDataNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMalformedPriceSeries, errors.ErrCodeMarketDataParseFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeDataUnavailable, errors.ErrCodeDataSourceUnavailable, errors.ErrCodeMarketDataFetchFailed:
		return http.StatusBadGateway
	case errors.ErrCodeBacktestCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
