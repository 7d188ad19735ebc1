package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SmaCrossover enters on a golden cross and exits on a death cross.
type SmaCrossover struct {
	params SmaCrossoverParams
}

func NewSmaCrossover(params Parameters, _ BuildContext) (Policy, error) {
	return &SmaCrossover{
		params: params.SmaCrossover,
	}, nil
}

func (s *SmaCrossover) ID() StrategyID {
	return StrategySmaCrossover
}

func (s *SmaCrossover) Name() string {
	return "SMA Crossover"
}

// WarmUp needs one extra bar to compare against the previous averages.
func (s *SmaCrossover) WarmUp() int {
	return s.params.SlowPeriod + 1
}

func (s *SmaCrossover) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	values := closes(history)

	fast, err := indicator.SMA(values, s.params.FastPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	slow, err := indicator.SMA(values, s.params.SlowPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	prevFast, err := indicator.SMA(values[:len(values)-1], s.params.FastPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	prevSlow, err := indicator.SMA(values[:len(values)-1], s.params.SlowPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	if prevFast <= prevSlow && fast > slow && state.IsFlat() {
		return types.NewDecision(types.SignalEnterLong, "Golden Cross")
	}

	if prevFast >= prevSlow && fast < slow && state.IsLong() {
		return types.NewDecision(types.SignalExit, "Death Cross")
	}

	return types.Hold(types.ReasonNoSignal)
}
