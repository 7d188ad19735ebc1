package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/analytics"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/risk"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ReasonMarginExhausted closes a short whose loss has consumed the account.
const ReasonMarginExhausted = "Margin exhausted"

type BacktestEngineV1 struct {
	config     BacktestEngineV1Config
	commission commission_fee.CommissionFee
	log        *logger.Logger
}

// NewBacktestEngineV1 validates the configuration and returns an engine that can run
// any number of independent backtests, including concurrently.
func NewBacktestEngineV1(config BacktestEngineV1Config, commission commission_fee.CommissionFee, log *logger.Logger) (engine.Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if commission == nil {
		commission = commission_fee.GetCommissionFeeHandler(config.Broker)
	}

	return &BacktestEngineV1{
		config:     config,
		commission: commission,
		log:        log,
	}, nil
}

// Config returns the configuration the engine was built with.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, series types.PriceSeries, policy strategy.Policy, callbacks engine.LifecycleCallbacks) (result types.BacktestResult, err error) {
	series = filterSeries(series, b.config.StartTime, b.config.EndTime)

	if err := series.Validate(); err != nil {
		b.log.Error("Rejected malformed price series",
			zap.String("symbol", series.Symbol),
			zap.String("strategy", string(policy.ID())),
			zap.Error(err),
		)

		return types.BacktestResult{}, err
	}

	runID := b.runID(series, policy)
	result = types.BacktestResult{
		RunID:          runID.String(),
		Symbol:         series.Symbol,
		StrategyID:     string(policy.ID()),
		StrategyName:   policy.Name(),
		InitialCapital: b.config.InitialCapital,
	}

	if series.Len() > 0 {
		result.StartDate = series.Bars[0].Date
		result.EndDate = series.Bars[series.Len()-1].Date
	}

	if callbacks.OnRunEnd != nil {
		defer func() {
			if err == nil || errors.IsReportable(err) {
				(*callbacks.OnRunEnd)(result)
			}
		}()
	}

	warmUp := max(policy.WarmUp(), 1)
	if series.Len() < warmUp {
		insufficient := errors.NewInsufficientDataErrorf(warmUp, series.Len(), series.Symbol,
			"%s needs %d bars, series has %d", policy.Name(), warmUp, series.Len())
		result.PerformanceStats = analytics.Analyze(b.config.InitialCapital, nil, nil, 0)
		result.Notes = append(result.Notes, insufficient.Error())

		b.log.Info("Skipping backtest with insufficient data",
			zap.String("symbol", series.Symbol),
			zap.String("strategy", string(policy.ID())),
			zap.Int("required", warmUp),
			zap.Int("actual", series.Len()),
		)

		return result, insufficient
	}

	if gated, ok := policy.(strategy.GatedPolicy); ok {
		if eligibility := gated.Eligibility(); eligibility != nil {
			result.Notes = append(result.Notes, eligibility.Error())
		}
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(result.RunID, policy.ID(), series.Len()); err != nil {
			return types.BacktestResult{}, err
		}
	}

	var regime risk.RegimeFilter
	if regimePolicy, ok := policy.(strategy.RegimePolicy); ok {
		regime = regimePolicy
	}

	state := NewBacktestState(runID, b.config.InitialCapital, b.commission, b.config.DecimalPrecision, b.log)
	riskManager := risk.NewManager(b.config.Risk, regime, b.log)

	if err := b.simulate(ctx, series, policy, state, riskManager, callbacks); err != nil {
		return types.BacktestResult{}, err
	}

	result.PerformanceStats = analytics.Analyze(b.config.InitialCapital, state.Ledger(), state.EquityCurve(), series.Years())
	result.SkippedSignals = riskManager.SkippedSignals()
	result.TradeLedger = state.Ledger()
	result.EquityCurve = state.EquityCurve()

	if b.config.ResultsFolder != "" {
		folder := filepath.Join(b.config.ResultsFolder, fmt.Sprintf("%s_%s_%s", series.Symbol, policy.ID(), runID.String()[:8]))

		result.TradesFilePath, result.EquityFilePath, err = state.Write(folder)
		if err != nil {
			return types.BacktestResult{}, err
		}

		if err := types.WriteResultStats(filepath.Join(folder, "stats.yaml"), []types.BacktestResult{result}); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write stats", err)
		}
	}

	b.log.Debug("Backtest completed",
		zap.String("symbol", series.Symbol),
		zap.String("strategy", string(policy.ID())),
		zap.Float64("final_value", result.FinalValue),
		zap.Float64("total_return_pct", result.TotalReturnPct),
		zap.Int("trades", result.TotalTrades),
	)

	return result, nil
}

// simulate walks the bars. Bars inside the warm-up window always hold, and the last
// bar closes whatever is still open.
func (b *BacktestEngineV1) simulate(ctx context.Context, series types.PriceSeries, policy strategy.Policy, state *BacktestState, riskManager *risk.Manager, callbacks engine.LifecycleCallbacks) error {
	bars := series.Bars
	last := len(bars) - 1
	warmUp := policy.WarmUp()

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestCancelled, err, "backtest of %s on %s cancelled at bar %d", policy.ID(), series.Symbol, i)
		}

		history := bars[:i+1]
		position := state.Position()

		decision := types.Hold(types.ReasonWarmUp)
		if i+1 >= warmUp {
			decision = policy.Signal(history, *position)
		}

		decision = riskManager.Evaluate(history, decision, position)

		if i == last {
			decision = terminalDecision(*position, decision)
		}

		b.execute(history, i, decision, state, riskManager)

		if position := state.Position(); position.IsShort() && !state.Equity(bar.Close).IsPositive() {
			state.Close(bar, ReasonMarginExhausted)
		}

		state.Mark(bar)

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, len(bars)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (b *BacktestEngineV1) execute(history []types.PriceBar, index int, decision types.Decision, state *BacktestState, riskManager *risk.Manager) {
	bar := history[len(history)-1]
	position := state.Position()

	switch decision.Signal {
	case types.SignalEnterLong, types.SignalEnterShort:
		if !position.IsFlat() {
			return
		}

		status := types.PositionLong
		tradeType := types.TradeTypeBuyOpen

		if decision.Signal == types.SignalEnterShort {
			status = types.PositionShort
			tradeType = types.TradeTypeSellShort
		}

		quantity := state.PositionSize(tradeType, bar.Close)
		if quantity <= 0 {
			b.log.Debug("Entry skipped, cash does not cover one unit and fees",
				zap.Time("date", bar.Date),
				zap.Float64("cash", state.Cash()),
				zap.Float64("price", bar.Close),
			)

			return
		}

		state.Open(bar, index, status, quantity, decision.Reason)
		riskManager.OnEntry(history, state.Position())
	case types.SignalExit:
		if position.IsLong() {
			state.Close(bar, decision.Reason)
		}
	case types.SignalCover:
		if position.IsShort() {
			state.Close(bar, decision.Reason)
		}
	case types.SignalHold:
	}
}

// terminalDecision closes any open position on the last bar and refuses new entries,
// so every run ends flat. An exit already decided for the bar keeps its own reason.
func terminalDecision(position types.PositionState, decision types.Decision) types.Decision {
	switch {
	case position.IsLong() && decision.Signal == types.SignalExit:
		return decision
	case position.IsShort() && decision.Signal == types.SignalCover:
		return decision
	case position.IsLong():
		return types.NewDecision(types.SignalExit, types.ReasonEndOfPeriod)
	case position.IsShort():
		return types.NewDecision(types.SignalCover, types.ReasonEndOfPeriod)
	case decision.Signal == types.SignalEnterLong || decision.Signal == types.SignalEnterShort:
		return types.Hold(types.ReasonEndOfPeriod)
	default:
		return decision
	}
}

// runID is derived from the inputs so that repeating a run reproduces its result.
func (b *BacktestEngineV1) runID(series types.PriceSeries, policy strategy.Policy) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%.2f|%d", series.Symbol, policy.ID(), b.config.InitialCapital, series.Len())
	if series.Len() > 0 {
		key = fmt.Sprintf("%s|%s|%s", key, series.Bars[0].Date.Format("20060102"), series.Bars[series.Len()-1].Date.Format("20060102"))
	}

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}
