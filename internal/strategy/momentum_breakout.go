package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MomentumBreakout buys a close above the prior high and exits on a close below the prior low.
type MomentumBreakout struct {
	params MomentumParams
}

func NewMomentumBreakout(params Parameters, _ BuildContext) (Policy, error) {
	return &MomentumBreakout{
		params: params.Momentum,
	}, nil
}

func (m *MomentumBreakout) ID() StrategyID {
	return StrategyMomentumBreakout
}

func (m *MomentumBreakout) Name() string {
	return "Momentum Breakout"
}

func (m *MomentumBreakout) WarmUp() int {
	return max(m.params.BreakoutPeriod, m.params.ExitPeriod) + 1
}

func (m *MomentumBreakout) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	values := closes(history)
	price := values[len(values)-1]

	if state.IsFlat() {
		channel, err := indicator.PriorChannel(values, m.params.BreakoutPeriod)
		if err != nil {
			return types.Hold(types.ReasonWarmUp)
		}

		if price > channel.High {
			return types.NewDecision(types.SignalEnterLong, fmt.Sprintf("Breakout above %d-day high", m.params.BreakoutPeriod))
		}

		return types.Hold(types.ReasonNoSignal)
	}

	if state.IsLong() {
		channel, err := indicator.PriorChannel(values, m.params.ExitPeriod)
		if err != nil {
			return types.Hold(types.ReasonWarmUp)
		}

		if price < channel.Low {
			return types.NewDecision(types.SignalExit, fmt.Sprintf("Breakdown below %d-day low", m.params.ExitPeriod))
		}
	}

	return types.Hold(types.ReasonNoSignal)
}
