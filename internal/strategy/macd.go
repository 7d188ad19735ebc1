package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MACD trades crossings of the MACD line over its signal line.
type MACD struct {
	params MACDParams
}

func NewMACD(params Parameters, _ BuildContext) (Policy, error) {
	return &MACD{
		params: params.MACD,
	}, nil
}

func (m *MACD) ID() StrategyID {
	return StrategyMACD
}

func (m *MACD) Name() string {
	return "MACD"
}

func (m *MACD) WarmUp() int {
	return indicator.MACDWarmUp(m.params.SlowPeriod, m.params.SignalPeriod) + 1
}

func (m *MACD) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	values := closes(history)

	current, err := indicator.MACD(values, m.params.FastPeriod, m.params.SlowPeriod, m.params.SignalPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	previous, err := indicator.MACD(values[:len(values)-1], m.params.FastPeriod, m.params.SlowPeriod, m.params.SignalPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	if previous.Histogram <= 0 && current.Histogram > 0 && state.IsFlat() {
		return types.NewDecision(types.SignalEnterLong, "MACD Bullish Crossover")
	}

	if previous.Histogram >= 0 && current.Histogram < 0 && state.IsLong() {
		return types.NewDecision(types.SignalExit, "MACD Bearish Crossover")
	}

	return types.Hold(types.ReasonNoSignal)
}
