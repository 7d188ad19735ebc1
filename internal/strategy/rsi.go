package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// RSI buys when the oscillator is oversold and sells when it is overbought.
type RSI struct {
	params RSIParams
}

func NewRSI(params Parameters, _ BuildContext) (Policy, error) {
	return &RSI{
		params: params.RSI,
	}, nil
}

func (r *RSI) ID() StrategyID {
	return StrategyRSI
}

func (r *RSI) Name() string {
	return "RSI"
}

func (r *RSI) WarmUp() int {
	return r.params.Period + 1
}

func (r *RSI) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	value, err := indicator.RSI(closes(history), r.params.Period)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	if value < r.params.Oversold && state.IsFlat() {
		return types.NewDecision(types.SignalEnterLong, fmt.Sprintf("RSI Oversold (%.2f)", value))
	}

	if value > r.params.Overbought && state.IsLong() {
		return types.NewDecision(types.SignalExit, fmt.Sprintf("RSI Overbought (%.2f)", value))
	}

	return types.Hold(types.ReasonNoSignal)
}
