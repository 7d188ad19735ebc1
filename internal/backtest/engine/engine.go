package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for a backtest run.
// Callbacks with an error return abort the run if they return an error.

// OnRunStartCallback is called before the first bar is processed.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyID strategy.StrategyID, totalBars int) error

// OnRunEndCallback is called when the run completes, including skipped runs.
type OnRunEndCallback func(result types.BacktestResult)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// Engine simulates one policy over one price series.
type Engine interface {
	// Run walks the series bar by bar and returns the completed result.
	// The context is checked between bars; cancelling it aborts only this run.
	// When the series is too short for the policy's warm-up, Run returns a skipped
	// result together with an InsufficientDataError.
	Run(ctx context.Context, series types.PriceSeries, policy strategy.Policy, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
