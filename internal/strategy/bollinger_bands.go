package strategy

import (
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BollingerBands buys below the lower band and sells above the upper band.
type BollingerBands struct {
	params BollingerParams
}

func NewBollingerBands(params Parameters, _ BuildContext) (Policy, error) {
	return &BollingerBands{
		params: params.Bollinger,
	}, nil
}

func (b *BollingerBands) ID() StrategyID {
	return StrategyBollingerBands
}

func (b *BollingerBands) Name() string {
	return "Bollinger Bands"
}

func (b *BollingerBands) WarmUp() int {
	return b.params.Period
}

func (b *BollingerBands) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	bands, err := indicator.BollingerBands(closes(history), b.params.Period, b.params.StdDev)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	price := history[len(history)-1].Close

	if price < bands.Lower && state.IsFlat() {
		return types.NewDecision(types.SignalEnterLong, "Price below lower band")
	}

	if price > bands.Upper && state.IsLong() {
		return types.NewDecision(types.SignalExit, "Price above upper band")
	}

	return types.Hold("Price within bands")
}
