// Package comparator runs several independent backtests over one series and merges
// their results once every run has finished.
package comparator

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// OnProgress is called after each run finishes, from the goroutine that ran it.
// Calls are serialized.
type OnProgress func(done int, total int, label string)

// RunObserver receives the outcome of every run, e.g. for metrics.
type RunObserver interface {
	ObserveRun(strategyID string, result types.BacktestResult, elapsed time.Duration, err error)
}

type Comparator struct {
	registry    strategy.Registry
	params      strategy.Parameters
	config      engine_v1.BacktestEngineV1Config
	commission  commission_fee.CommissionFee
	concurrency int
	observer    RunObserver
	logger      *logger.Logger
}

// Option customizes a Comparator.
type Option func(*Comparator)

// WithConcurrency bounds the number of runs in flight. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Comparator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithObserver reports every run to observer.
func WithObserver(observer RunObserver) Option {
	return func(c *Comparator) {
		c.observer = observer
	}
}

// NewComparator creates a comparator whose runs share config and commission.
// The capital of config is replaced per request. commission may be nil, in which case
// the broker of config decides.
func NewComparator(registry strategy.Registry, params strategy.Parameters, config engine_v1.BacktestEngineV1Config, commission commission_fee.CommissionFee, log *logger.Logger, opts ...Option) *Comparator {
	c := &Comparator{
		registry:    registry,
		params:      params,
		config:      config,
		commission:  commission,
		concurrency: runtime.NumCPU(),
		observer:    nil,
		logger:      log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compare runs every strategy in ids on the series of buildCtx with the given capital.
//
// Strategies that cannot be built or lack data produce a skipped result carrying a
// note. Fatal errors (malformed series, cancellation) fail the comparison, but only
// after every other run has finished on its own.
func (c *Comparator) Compare(ctx context.Context, buildCtx strategy.BuildContext, capital float64, ids []strategy.StrategyID, onProgress OnProgress) (types.Comparison, error) {
	if len(ids) == 0 {
		return types.Comparison{}, errors.New(errors.ErrCodeStrategyConfigError, "no strategies to compare")
	}

	backtest, err := c.newEngine(capital)
	if err != nil {
		return types.Comparison{}, err
	}

	buildCtx = engine_v1.ScopeBuildContext(c.config, buildCtx)

	results := make([]types.BacktestResult, len(ids))
	progress := newProgress(len(ids), onProgress)

	var group errgroup.Group
	group.SetLimit(c.concurrency)

	for i, id := range ids {
		group.Go(func() error {
			result, err := c.runOne(ctx, backtest, buildCtx, id, capital)
			progress.done(string(id))

			if err != nil {
				return err
			}

			results[i] = result

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return types.Comparison{}, err
	}

	comparison := types.Comparison{
		Symbol:           buildCtx.Series.Symbol,
		InitialCapital:   capital,
		Results:          results,
		BestStrategy:     BestStrategy(results),
		BuyHoldReturnPct: BuyHoldReturnPct(buildCtx.Series, results),
	}

	for i := range comparison.Results {
		if !comparison.Results[i].Skipped() {
			comparison.Results[i].OutperformancePct = comparison.Results[i].TotalReturnPct - comparison.BuyHoldReturnPct
		}
	}

	c.logger.Info("Comparison completed",
		zap.String("symbol", comparison.Symbol),
		zap.Int("strategies", len(ids)),
		zap.String("best", comparison.BestStrategy),
		zap.Float64("buy_hold_return_pct", comparison.BuyHoldReturnPct),
	)

	return comparison, nil
}

// Sweep runs one strategy once per capital amount. Rows keep the order of capitals.
func (c *Comparator) Sweep(ctx context.Context, buildCtx strategy.BuildContext, id strategy.StrategyID, capitals []float64, onProgress OnProgress) ([]types.CalculatorRow, error) {
	if len(capitals) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidCapital, "no capital amounts to sweep")
	}

	engines := make([]engine.Engine, len(capitals))

	for i, capital := range capitals {
		backtest, err := c.newEngine(capital)
		if err != nil {
			return nil, err
		}

		engines[i] = backtest
	}

	buildCtx = engine_v1.ScopeBuildContext(c.config, buildCtx)

	rows := make([]types.CalculatorRow, len(capitals))
	progress := newProgress(len(capitals), onProgress)

	var group errgroup.Group
	group.SetLimit(c.concurrency)

	for i, capital := range capitals {
		group.Go(func() error {
			policy, err := c.registry.Build(id, c.params, buildCtx)
			if err != nil {
				return err
			}

			result, err := c.run(ctx, engines[i], buildCtx.Series, policy)
			progress.done(string(id))

			if err != nil {
				return err
			}

			rows[i] = CalculatorRow(capital, result)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

func (c *Comparator) newEngine(capital float64) (engine.Engine, error) {
	config := c.config
	config.InitialCapital = capital

	return engine_v1.NewBacktestEngineV1(config, c.commission, c.logger)
}

// runOne turns build failures and reportable errors into a skipped result.
func (c *Comparator) runOne(ctx context.Context, backtest engine.Engine, buildCtx strategy.BuildContext, id strategy.StrategyID, capital float64) (types.BacktestResult, error) {
	policy, err := c.registry.Build(id, c.params, buildCtx)
	if err != nil {
		c.logger.Warn("Strategy skipped, cannot be built",
			zap.String("symbol", buildCtx.Series.Symbol),
			zap.String("strategy", string(id)),
			zap.Error(err),
		)

		return skippedResult(buildCtx.Series, id, capital, err), nil
	}

	result, err := c.run(ctx, backtest, buildCtx.Series, policy)
	if err != nil && errors.IsReportable(err) {
		return result, nil
	}

	return result, err
}

func (c *Comparator) run(ctx context.Context, backtest engine.Engine, series types.PriceSeries, policy strategy.Policy) (types.BacktestResult, error) {
	start := time.Now()
	result, err := backtest.Run(ctx, series, policy, engine.LifecycleCallbacks{})

	if c.observer != nil {
		c.observer.ObserveRun(string(policy.ID()), result, time.Since(start), err)
	}

	return result, err
}

func skippedResult(series types.PriceSeries, id strategy.StrategyID, capital float64, cause error) types.BacktestResult {
	result := types.BacktestResult{
		Symbol:         series.Symbol,
		StrategyID:     string(id),
		StrategyName:   string(id),
		InitialCapital: capital,
		Notes:          []string{cause.Error()},
	}
	result.FinalValue = capital

	return result
}

// BestStrategy is the completed result with the highest total return. Ties keep the
// earlier result. It is empty when every run was skipped.
func BestStrategy(results []types.BacktestResult) string {
	best := ""
	bestReturn := 0.0

	for _, result := range results {
		if result.Skipped() {
			continue
		}

		if best == "" || result.TotalReturnPct > bestReturn {
			best = result.StrategyID
			bestReturn = result.TotalReturnPct
		}
	}

	return best
}

// BuyHoldReturnPct is the return of the buy-and-hold run when present, or the raw
// price return of the series otherwise.
func BuyHoldReturnPct(series types.PriceSeries, results []types.BacktestResult) float64 {
	for _, result := range results {
		if result.StrategyID == string(strategy.StrategyBuyHold) && !result.Skipped() {
			return result.TotalReturnPct
		}
	}

	if series.Len() < 2 {
		return 0
	}

	first := series.Bars[0].Close
	last := series.Bars[series.Len()-1].Close

	return (last/first - 1) * 100
}

// CalculatorRow summarizes one sweep run.
func CalculatorRow(capital float64, result types.BacktestResult) types.CalculatorRow {
	return types.CalculatorRow{
		Capital:        capital,
		FinalValue:     result.FinalValue,
		Profit:         result.FinalValue - capital,
		TotalReturnPct: result.TotalReturnPct,
		WinRatePct:     result.WinRatePct,
		TotalTrades:    result.TotalTrades,
		TotalFees:      result.TotalFees,
	}
}

type progress struct {
	mu       sync.Mutex
	finished int
	total    int
	callback OnProgress
}

func newProgress(total int, callback OnProgress) *progress {
	return &progress{total: total, callback: callback}
}

func (p *progress) done(label string) {
	if p.callback == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.finished++
	p.callback(p.finished, p.total, label)
}
