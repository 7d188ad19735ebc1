// Package strategy holds the trading policies evaluated once per bar by the simulator.
//
// A Policy is immutable once built. It receives the history up to and including
// the current bar together with the position state and answers with a Decision.
package strategy

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type StrategyID string

const (
	StrategyBuyHold           StrategyID = "buy_hold"
	StrategySmaCrossover      StrategyID = "sma_crossover"
	StrategyRSI               StrategyID = "rsi"
	StrategyMACD              StrategyID = "macd"
	StrategyBollingerBands    StrategyID = "bollinger_bands"
	StrategyMonthlySeasonal   StrategyID = "monthly_seasonal"
	StrategyMomentumBreakout  StrategyID = "momentum_breakout"
	StrategyPairMeanReversion StrategyID = "pair_mean_reversion"
	StrategyRatioTrading      StrategyID = "ratio_trading"
)

// SingleInstrumentStrategies are the strategies that need only the primary series.
var SingleInstrumentStrategies = []StrategyID{
	StrategyBuyHold,
	StrategySmaCrossover,
	StrategyRSI,
	StrategyMACD,
	StrategyBollingerBands,
	StrategyMonthlySeasonal,
	StrategyMomentumBreakout,
}

// PairStrategies need a secondary series and pair analytics.
var PairStrategies = []StrategyID{
	StrategyPairMeanReversion,
	StrategyRatioTrading,
}

// IsPair reports whether the strategy trades a pair.
func (id StrategyID) IsPair() bool {
	return id == StrategyPairMeanReversion || id == StrategyRatioTrading
}

// Policy maps a price history and position state to a decision.
type Policy interface {
	ID() StrategyID
	Name() string
	// WarmUp is the number of bars needed before the policy can emit anything but HOLD.
	WarmUp() int
	// Signal evaluates the last bar of history.
	Signal(history []types.PriceBar, state types.PositionState) types.Decision
}

// RegimePolicy is implemented by policies whose calendar forces exits.
// The risk manager consults it before the trailing stop.
type RegimePolicy interface {
	Policy
	InUnfavorableRegime(date time.Time) bool
}

// GatedPolicy is implemented by policies that may refuse to trade at all.
// A non-nil Eligibility error is attached to the result as a note.
type GatedPolicy interface {
	Policy
	Eligibility() error
}

// BuildContext is everything a factory may need to build a policy.
type BuildContext struct {
	Series types.PriceSeries
	// Secondary is the second leg of a pair strategy.
	Secondary optional.Option[types.PriceSeries]
	// PairAnalytics is the pre-computed relationship of the two legs.
	PairAnalytics optional.Option[types.PairAnalytics]
	// Prior holds the bars dated before Series. Policies may learn from them
	// but are never asked to trade them.
	Prior []types.PriceBar
}

// NewBuildContext returns a context for a single-instrument strategy.
func NewBuildContext(series types.PriceSeries) BuildContext {
	return BuildContext{
		Series:        series,
		Secondary:     optional.None[types.PriceSeries](),
		PairAnalytics: optional.None[types.PairAnalytics](),
	}
}

// WithPair returns a copy of the context with the pair inputs set.
func (c BuildContext) WithPair(secondary types.PriceSeries, analytics types.PairAnalytics) BuildContext {
	c.Secondary = optional.Some(secondary)
	c.PairAnalytics = optional.Some(analytics)

	return c
}

// Restrict returns a copy of the context trading only the bars of simulated.
// The primary bars dated before the first simulated bar move to Prior.
// Secondary is kept whole so pair measures can look back.
func (c BuildContext) Restrict(simulated types.PriceSeries) BuildContext {
	all := c.allBars()
	prior := make([]types.PriceBar, 0)

	if len(simulated.Bars) > 0 {
		first := simulated.Bars[0].Date
		for _, bar := range all {
			if bar.Date.Before(first) {
				prior = append(prior, bar)
			}
		}
	}

	c.Series = simulated
	c.Prior = prior

	return c
}

// allBars returns Prior followed by the bars of Series.
func (c BuildContext) allBars() []types.PriceBar {
	if len(c.Prior) == 0 {
		return c.Series.Bars
	}

	bars := make([]types.PriceBar, 0, len(c.Prior)+len(c.Series.Bars))
	bars = append(bars, c.Prior...)

	return append(bars, c.Series.Bars...)
}

// Factory builds a policy.
type Factory func(params Parameters, ctx BuildContext) (Policy, error)

func closes(history []types.PriceBar) []float64 {
	return types.Closes(history)
}
