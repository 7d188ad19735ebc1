package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BuyHold enters on the first bar and exits on the last. It is the baseline of every comparison.
type BuyHold struct {
	lastDate time.Time
}

func NewBuyHold(_ Parameters, ctx BuildContext) (Policy, error) {
	buyHold := &BuyHold{}
	if n := ctx.Series.Len(); n > 0 {
		buyHold.lastDate = ctx.Series.Bars[n-1].Date
	}

	return buyHold, nil
}

func (b *BuyHold) ID() StrategyID {
	return StrategyBuyHold
}

func (b *BuyHold) Name() string {
	return "Buy & Hold"
}

func (b *BuyHold) WarmUp() int {
	return 1
}

func (b *BuyHold) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	if state.IsFlat() && len(history) == 1 {
		return types.NewDecision(types.SignalEnterLong, "Buy and hold entry")
	}

	if state.IsLong() && !history[len(history)-1].Date.Before(b.lastDate) {
		return types.NewDecision(types.SignalExit, "Buy and hold exit")
	}

	return types.Hold("Holding")
}
