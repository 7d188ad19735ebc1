// Package service is the exposed surface of the backtester. It resolves price series,
// pair analytics and cost profiles, then hands the work to the simulator or the comparator.
package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/comparator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/metrics"
	"github.com/rxtech-lab/argo-backtest/internal/pair"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
)

// BacktestRequest runs one strategy on one symbol.
type BacktestRequest struct {
	Symbol   string              `json:"symbol" yaml:"symbol" validate:"required"`
	Strategy strategy.StrategyID `json:"strategy" yaml:"strategy" validate:"required"`
	// PairSymbol is the second leg of a pair strategy.
	PairSymbol      string  `json:"pair_symbol,omitempty" yaml:"pair_symbol,omitempty"`
	Capital         float64 `json:"capital" yaml:"capital" validate:"gt=0"`
	Years           int     `json:"years" yaml:"years" validate:"gte=1,lte=50"`
	EnforceBuyFirst bool    `json:"enforce_buy_first" yaml:"enforce_buy_first"`
	// CostProfile overrides the configured broker.
	CostProfile string `json:"cost_profile,omitempty" yaml:"cost_profile,omitempty"`
}

// CompareRequest runs every strategy on one symbol. Pair strategies are included when
// PairSymbol is set.
type CompareRequest struct {
	Symbol          string  `json:"symbol" yaml:"symbol" validate:"required"`
	PairSymbol      string  `json:"pair_symbol,omitempty" yaml:"pair_symbol,omitempty"`
	Capital         float64 `json:"capital" yaml:"capital" validate:"gt=0"`
	Years           int     `json:"years" yaml:"years" validate:"gte=1,lte=50"`
	EnforceBuyFirst bool    `json:"enforce_buy_first" yaml:"enforce_buy_first"`
	CostProfile     string  `json:"cost_profile,omitempty" yaml:"cost_profile,omitempty"`
}

// SweepRequest runs one strategy once per capital amount.
type SweepRequest struct {
	Symbol      string              `json:"symbol" yaml:"symbol" validate:"required"`
	Strategy    strategy.StrategyID `json:"strategy" yaml:"strategy" validate:"required"`
	PairSymbol  string              `json:"pair_symbol,omitempty" yaml:"pair_symbol,omitempty"`
	Capitals    []float64           `json:"capitals" yaml:"capitals" validate:"required,min=1,dive,gt=0"`
	Years       int                 `json:"years" yaml:"years" validate:"gte=1,lte=50"`
	CostProfile string              `json:"cost_profile,omitempty" yaml:"cost_profile,omitempty"`
}

// PairRequest analyzes two symbols, or suggests pairs among several.
type PairRequest struct {
	Symbols []string `json:"symbols" yaml:"symbols" validate:"required,min=2,dive,required"`
	Years   int      `json:"years" yaml:"years" validate:"gte=1,lte=50"`
}

// PairSuggester is implemented by analytics providers that can rank many pairs at once.
type PairSuggester interface {
	Suggest(ctx context.Context, symbols []string, start time.Time, end time.Time) ([]types.PairAnalytics, error)
}

type Service struct {
	marketData provider.Provider
	pairs      pair.AnalyticsProvider
	profiles   commission_fee.ProfileStore
	registry   strategy.Registry
	params     strategy.Parameters
	config     engine_v1.BacktestEngineV1Config
	metrics    *metrics.Metrics
	logger     *logger.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPairAnalytics enables pair strategies and pair analysis.
func WithPairAnalytics(pairs pair.AnalyticsProvider) Option {
	return func(s *Service) {
		s.pairs = pairs
	}
}

// WithProfileStore enables named cost profiles.
func WithProfileStore(profiles commission_fee.ProfileStore) Option {
	return func(s *Service) {
		s.profiles = profiles
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithParameters(params strategy.Parameters) Option {
	return func(s *Service) {
		s.params = params
	}
}

func WithRegistry(registry strategy.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithClock fixes the reference date that lookback periods end on.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a service fetching series from marketData. config is the base
// engine configuration; capital and the buy-first rule are replaced per request.
func NewService(marketData provider.Provider, config engine_v1.BacktestEngineV1Config, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		marketData: marketData,
		pairs:      nil,
		profiles:   nil,
		registry:   strategy.NewDefaultRegistry(),
		params:     strategy.DefaultParameters(),
		config:     config,
		metrics:    nil,
		logger:     log,
		validate:   validator.New(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Strategies lists the registered strategy IDs.
func (s *Service) Strategies() []strategy.StrategyID {
	return s.registry.List()
}

// RunBacktest fetches the last Years of data for the symbol and simulates the strategy.
// Insufficient data and non-stationary pairs produce a result with notes and no error.
func (s *Service) RunBacktest(ctx context.Context, req BacktestRequest) (types.BacktestResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return types.BacktestResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid backtest request", err)
	}

	start, end := s.period(req.Years)

	buildCtx, err := s.buildContext(ctx, req.Symbol, req.PairSymbol, req.Strategy.IsPair(), start, end)
	if err != nil {
		return types.BacktestResult{}, err
	}

	config, commission, err := s.engineConfig(req.Capital, req.EnforceBuyFirst, req.CostProfile)
	if err != nil {
		return types.BacktestResult{}, err
	}

	backtest, err := engine_v1.NewBacktestEngineV1(config, commission, s.logger)
	if err != nil {
		return types.BacktestResult{}, err
	}

	buildCtx = engine_v1.ScopeBuildContext(config, buildCtx)

	policy, err := s.registry.Build(req.Strategy, s.params, buildCtx)
	if err != nil {
		return types.BacktestResult{}, err
	}

	began := time.Now()
	result, err := backtest.Run(ctx, buildCtx.Series, policy, engine.LifecycleCallbacks{})

	if s.metrics != nil {
		s.metrics.ObserveRun(string(req.Strategy), result, time.Since(began), err)
	}

	if err != nil && !errors.IsReportable(err) {
		return types.BacktestResult{}, err
	}

	if !result.Skipped() {
		result.OutperformancePct = result.TotalReturnPct - comparator.BuyHoldReturnPct(buildCtx.Series, nil)
	}

	s.logger.Info("Backtest completed",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", string(req.Strategy)),
		zap.Float64("final_value", result.FinalValue),
		zap.Float64("total_return_pct", result.TotalReturnPct),
		zap.Int("total_trades", result.TotalTrades),
	)

	return result, nil
}

// CompareStrategies runs every applicable strategy on the same series and picks the best.
func (s *Service) CompareStrategies(ctx context.Context, req CompareRequest, onProgress comparator.OnProgress) (types.Comparison, error) {
	if err := s.validate.Struct(req); err != nil {
		return types.Comparison{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid comparison request", err)
	}

	start, end := s.period(req.Years)
	pairSymbol := s.pairSymbol(req.PairSymbol)
	withPair := pairSymbol != ""

	buildCtx, err := s.buildContext(ctx, req.Symbol, pairSymbol, withPair, start, end)
	if err != nil {
		return types.Comparison{}, err
	}

	config, commission, err := s.engineConfig(req.Capital, req.EnforceBuyFirst, req.CostProfile)
	if err != nil {
		return types.Comparison{}, err
	}

	ids := append([]strategy.StrategyID{}, strategy.SingleInstrumentStrategies...)
	if withPair {
		ids = append(ids, strategy.PairStrategies...)
	}

	return s.comparator(config, commission).Compare(ctx, buildCtx, req.Capital, ids, onProgress)
}

// SweepCapital runs the strategy once per capital amount on the same series.
func (s *Service) SweepCapital(ctx context.Context, req SweepRequest, onProgress comparator.OnProgress) ([]types.CalculatorRow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid sweep request", err)
	}

	start, end := s.period(req.Years)

	buildCtx, err := s.buildContext(ctx, req.Symbol, req.PairSymbol, req.Strategy.IsPair(), start, end)
	if err != nil {
		return nil, err
	}

	config, commission, err := s.engineConfig(req.Capitals[0], s.config.Risk.EnforceBuyFirst, req.CostProfile)
	if err != nil {
		return nil, err
	}

	return s.comparator(config, commission).Sweep(ctx, buildCtx, req.Strategy, req.Capitals, onProgress)
}

// AnalyzePairs analyzes the pair when two symbols are given, otherwise it suggests the
// best scoring pairs among all symbols.
func (s *Service) AnalyzePairs(ctx context.Context, req PairRequest) ([]types.PairAnalytics, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid pair request", err)
	}

	if s.pairs == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "pair analytics are not configured")
	}

	start, end := s.period(req.Years)

	if len(req.Symbols) == 2 {
		analytics, err := s.pairs.Analyze(ctx, req.Symbols[0], req.Symbols[1], start, end)
		if err != nil {
			return nil, err
		}

		s.observePair(analytics)

		return []types.PairAnalytics{analytics}, nil
	}

	suggester, ok := s.pairs.(PairSuggester)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "pair analytics provider cannot suggest pairs")
	}

	suggestions, err := suggester.Suggest(ctx, req.Symbols, start, end)
	if err != nil {
		return nil, err
	}

	for _, analytics := range suggestions {
		s.observePair(analytics)
	}

	return suggestions, nil
}

func (s *Service) observePair(analytics types.PairAnalytics) {
	if s.metrics != nil {
		s.metrics.ObservePair(analytics)
	}
}

// period returns the lookback window ending on the current day.
func (s *Service) period(years int) (time.Time, time.Time) {
	now := s.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return end.AddDate(-years, 0, 0), end
}

func (s *Service) buildContext(ctx context.Context, symbol string, pairSymbol string, needsPair bool, start, end time.Time) (strategy.BuildContext, error) {
	series, err := s.marketData.GetPriceSeries(ctx, symbol, start, end)
	if err != nil {
		return strategy.BuildContext{}, err
	}

	buildCtx := strategy.NewBuildContext(series)

	if !needsPair {
		return buildCtx, nil
	}

	pairSymbol = s.pairSymbol(pairSymbol)
	if pairSymbol == "" {
		return strategy.BuildContext{}, errors.Newf(errors.ErrCodeMissingParameter, "pair strategies on %s need a pair symbol", symbol)
	}

	if s.pairs == nil {
		return strategy.BuildContext{}, errors.New(errors.ErrCodeInvalidConfiguration, "pair analytics are not configured")
	}

	secondary, err := s.marketData.GetPriceSeries(ctx, pairSymbol, start, end)
	if err != nil {
		return strategy.BuildContext{}, err
	}

	analytics, err := s.pairs.Analyze(ctx, symbol, pairSymbol, start, end)
	if err != nil {
		return strategy.BuildContext{}, err
	}

	s.observePair(analytics)

	return buildCtx.WithPair(secondary, analytics), nil
}

// pairSymbol falls back to the secondary symbol of the pair parameters.
func (s *Service) pairSymbol(requested string) string {
	if requested != "" {
		return requested
	}

	return s.params.Pair.SecondarySymbol
}

// engineConfig derives the per-request engine configuration. A named cost profile
// replaces the configured broker.
func (s *Service) engineConfig(capital float64, enforceBuyFirst bool, profileName string) (engine_v1.BacktestEngineV1Config, commission_fee.CommissionFee, error) {
	config := s.config
	config.InitialCapital = capital
	config.Risk.EnforceBuyFirst = enforceBuyFirst

	if profileName == "" {
		return config, nil, nil
	}

	if s.profiles == nil {
		return config, nil, errors.Newf(errors.ErrCodeCostProfileNotFound, "cost profile %s requested but no profile store is configured", profileName)
	}

	profile, err := s.profiles.Get(profileName)
	if err != nil {
		return config, nil, err
	}

	return config, commission_fee.NewProfileCommissionFee(profile), nil
}

func (s *Service) comparator(config engine_v1.BacktestEngineV1Config, commission commission_fee.CommissionFee) *comparator.Comparator {
	opts := []comparator.Option{}
	if s.metrics != nil {
		opts = append(opts, comparator.WithObserver(s.metrics))
	}

	return comparator.NewComparator(s.registry, s.params, config, commission, s.logger, opts...)
}
