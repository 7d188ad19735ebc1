package strategy

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// pairMeasure turns the two legs into the value whose z-score is traded.
type pairMeasure func(primary, secondary float64, analytics types.PairAnalytics) float64

func spreadMeasure(primary, secondary float64, analytics types.PairAnalytics) float64 {
	return primary - analytics.HedgeRatio*secondary
}

func ratioMeasure(primary, secondary float64, _ types.PairAnalytics) float64 {
	if secondary == 0 {
		return math.NaN()
	}

	return primary / secondary
}

// Pair trades the first leg of a pair on the z-score of its spread or ratio
// against the second leg. It only enters when the pair analytics flag the pair as
// stationary; otherwise every bar holds and Eligibility reports why.
type Pair struct {
	id          StrategyID
	params      PairParams
	analytics   types.PairAnalytics
	positions   map[int64]int
	measure     []float64
	eligibility error
}

func NewPairMeanReversion(params Parameters, ctx BuildContext) (Policy, error) {
	return newPair(StrategyPairMeanReversion, spreadMeasure, params, ctx)
}

func NewRatioTrading(params Parameters, ctx BuildContext) (Policy, error) {
	return newPair(StrategyRatioTrading, ratioMeasure, params, ctx)
}

func newPair(id StrategyID, measureFn pairMeasure, params Parameters, ctx BuildContext) (Policy, error) {
	if ctx.Secondary.IsNone() {
		return nil, errors.Newf(errors.ErrCodeMissingParameter, "%s requires a secondary series", id)
	}

	if ctx.PairAnalytics.IsNone() {
		return nil, errors.Newf(errors.ErrCodeMissingParameter, "%s requires pair analytics", id)
	}

	analytics := ctx.PairAnalytics.Unwrap()
	primary := ctx.allBars()
	secondary := alignSecondary(primary, ctx.Secondary.Unwrap().Bars)

	measure := make([]float64, len(primary))
	positions := make(map[int64]int, len(primary))

	for i, bar := range primary {
		positions[bar.Date.Unix()] = i
		if math.IsNaN(secondary[i]) {
			measure[i] = math.NaN()

			continue
		}

		measure[i] = measureFn(bar.Close, secondary[i], analytics)
	}

	var eligibility error
	if !analytics.IsStationaryPair {
		eligibility = errors.NewNonStationaryPairError(analytics.SymbolA, analytics.SymbolB, analytics.PValue)
	}

	return &Pair{
		id:          id,
		params:      params.Pair,
		analytics:   analytics,
		positions:   positions,
		measure:     measure,
		eligibility: eligibility,
	}, nil
}

// alignSecondary returns the last secondary close at or before each primary date.
func alignSecondary(primary, secondary []types.PriceBar) []float64 {
	aligned := make([]float64, len(primary))
	j := -1

	for i, bar := range primary {
		for j+1 < len(secondary) && !secondary[j+1].Date.After(bar.Date) {
			j++
		}

		if j < 0 {
			aligned[i] = math.NaN()

			continue
		}

		aligned[i] = secondary[j].Close
	}

	return aligned
}

func (p *Pair) ID() StrategyID {
	return p.id
}

func (p *Pair) Name() string {
	if p.id == StrategyRatioTrading {
		return fmt.Sprintf("Ratio Trading (%s/%s)", p.analytics.SymbolA, p.analytics.SymbolB)
	}

	return fmt.Sprintf("Pair Mean Reversion (%s/%s)", p.analytics.SymbolA, p.analytics.SymbolB)
}

func (p *Pair) WarmUp() int {
	return p.params.Lookback
}

func (p *Pair) Eligibility() error {
	return p.eligibility
}

func (p *Pair) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	// The measure is looked up by date so a policy built on a longer series than
	// the simulated one still reads the bar it is asked about.
	if len(history) == 0 {
		return types.Hold(types.ReasonWarmUp)
	}

	current := len(history) - 1
	index, ok := p.positions[history[current].Date.Unix()]
	if !ok {
		return types.Hold("Pair data not aligned")
	}

	if index < p.params.Lookback-1 {
		return types.Hold(types.ReasonWarmUp)
	}

	window := p.measure[:index+1]
	for _, v := range window[len(window)-p.params.Lookback:] {
		if math.IsNaN(v) {
			return types.Hold(types.ReasonWarmUp)
		}
	}

	z, err := indicator.ZScore(window, p.params.Lookback)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	held := current - state.EntryIndex

	switch state.Status {
	case types.PositionLong:
		if held >= p.params.MaxHoldingBars {
			return types.NewDecision(types.SignalExit, types.ReasonMaxHoldingTime)
		}

		if z >= -p.params.ExitZScore {
			return types.NewDecision(types.SignalExit, fmt.Sprintf("Spread reverted (z=%.2f)", z))
		}
	case types.PositionShort:
		if held >= p.params.MaxHoldingBars {
			return types.NewDecision(types.SignalCover, types.ReasonMaxHoldingTime)
		}

		if z <= p.params.ExitZScore {
			return types.NewDecision(types.SignalCover, fmt.Sprintf("Spread reverted (z=%.2f)", z))
		}
	case types.PositionFlat:
		if p.eligibility != nil {
			return types.Hold("Pair is not stationary")
		}

		if z <= -p.params.EntryZScore {
			return types.NewDecision(types.SignalEnterLong, fmt.Sprintf("Spread below mean (z=%.2f)", z))
		}

		if z >= p.params.EntryZScore && p.params.AllowShort {
			return types.NewDecision(types.SignalEnterShort, fmt.Sprintf("Spread above mean (z=%.2f)", z))
		}
	}

	return types.Hold(types.ReasonNoSignal)
}
