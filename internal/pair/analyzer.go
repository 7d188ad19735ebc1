package pair

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
)

// AnalyticsProvider supplies the relationship of two instruments over a period.
type AnalyticsProvider interface {
	Analyze(ctx context.Context, symbolA string, symbolB string, start time.Time, end time.Time) (types.PairAnalytics, error)
}

// Analyzer computes pair analytics from the series of a market data provider.
type Analyzer struct {
	provider provider.Provider
	logger   *logger.Logger
}

func NewAnalyzer(marketData provider.Provider, log *logger.Logger) *Analyzer {
	return &Analyzer{
		provider: marketData,
		logger:   log,
	}
}

// Analyze implements AnalyticsProvider.
func (a *Analyzer) Analyze(ctx context.Context, symbolA string, symbolB string, start time.Time, end time.Time) (types.PairAnalytics, error) {
	series, err := a.fetch(ctx, []string{symbolA, symbolB}, start, end)
	if err != nil {
		return types.PairAnalytics{}, err
	}

	result, err := Compute(series[symbolA], series[symbolB])
	if err != nil {
		return types.PairAnalytics{}, err
	}

	a.logger.Debug("Analyzed pair",
		zap.String("symbol_a", symbolA),
		zap.String("symbol_b", symbolB),
		zap.Float64("correlation", result.PearsonCorrelation),
		zap.Float64("p_value", result.PValue),
		zap.Float64("score", result.Score),
	)

	return result, nil
}

// Suggest analyzes every pair of symbols and returns those scoring at least
// SuggestionScore, best first. Symbols without data are skipped with a warning.
func (a *Analyzer) Suggest(ctx context.Context, symbols []string, start time.Time, end time.Time) ([]types.PairAnalytics, error) {
	series, err := a.fetch(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}

	suggestions := make([]types.PairAnalytics, 0)

	for i, symbolA := range symbols {
		for _, symbolB := range symbols[i+1:] {
			seriesA, okA := series[symbolA]
			seriesB, okB := series[symbolB]

			if !okA || !okB {
				continue
			}

			result, err := Compute(seriesA, seriesB)
			if err != nil {
				a.logger.Debug("Skipping pair", zap.String("symbol_a", symbolA), zap.String("symbol_b", symbolB), zap.Error(err))

				continue
			}

			if result.Score >= SuggestionScore {
				suggestions = append(suggestions, result)
			}
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	return suggestions, nil
}

// fetch loads the series concurrently. With two symbols any failure is returned;
// with more, unknown symbols are dropped as long as two remain.
func (a *Analyzer) fetch(ctx context.Context, symbols []string, start time.Time, end time.Time) (map[string]types.PriceSeries, error) {
	results := make([]types.PriceSeries, len(symbols))
	failures := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)

	for i, symbol := range symbols {
		g.Go(func() error {
			series, err := a.provider.GetPriceSeries(gctx, symbol, start, end)
			if err != nil && (len(symbols) == 2 || !errors.HasCode(err, errors.ErrCodeSymbolNotFound)) {
				return err
			}

			results[i] = series
			failures[i] = err

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string]types.PriceSeries, len(symbols))

	for i, symbol := range symbols {
		if failures[i] != nil {
			a.logger.Warn("No price data for symbol", zap.String("symbol", symbol), zap.Error(failures[i]))

			continue
		}

		series[symbol] = results[i]
	}

	if len(series) < 2 {
		return nil, errors.Newf(errors.ErrCodeInsufficientData, "need at least two symbols with data, have %d", len(series))
	}

	return series, nil
}
