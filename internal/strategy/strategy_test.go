package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StrategyTestSuite struct {
	suite.Suite
	params Parameters
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) SetupTest() {
	suite.params = DefaultParameters()
}

func barsFromCloses(start time.Time, closes ...float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}

	return bars
}

func longAt(price float64, index int) types.PositionState {
	state := types.NewFlatPosition()
	state.Status = types.PositionLong
	state.EntryPrice = price
	state.EntryIndex = index
	state.Quantity = 1

	return state
}

func shortAt(price float64, index int) types.PositionState {
	state := longAt(price, index)
	state.Status = types.PositionShort

	return state
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func (suite *StrategyTestSuite) TestBuyHold() {
	bars := barsFromCloses(day0, 10, 11, 12, 13)
	policy, err := NewBuyHold(suite.params, NewBuildContext(types.PriceSeries{Symbol: "SPY", Bars: bars}))
	suite.Require().NoError(err)

	suite.Equal(types.SignalEnterLong, policy.Signal(bars[:1], types.NewFlatPosition()).Signal)
	suite.Equal(types.SignalHold, policy.Signal(bars[:2], longAt(10, 0)).Signal)
	suite.Equal(types.SignalHold, policy.Signal(bars[:2], types.NewFlatPosition()).Signal)
	suite.Equal(types.SignalExit, policy.Signal(bars, longAt(10, 0)).Signal)
}

func (suite *StrategyTestSuite) TestSmaCrossover() {
	suite.params.SmaCrossover = SmaCrossoverParams{FastPeriod: 2, SlowPeriod: 3}
	policy, err := NewSmaCrossover(suite.params, BuildContext{})
	suite.Require().NoError(err)
	suite.Equal(4, policy.WarmUp())

	golden := barsFromCloses(day0, 5, 5, 5, 5, 8)
	decision := policy.Signal(golden, types.NewFlatPosition())
	suite.Equal(types.SignalEnterLong, decision.Signal)
	suite.Equal("Golden Cross", decision.Reason)

	death := barsFromCloses(day0, 5, 5, 5, 5, 2)
	decision = policy.Signal(death, longAt(5, 0))
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal("Death Cross", decision.Reason)

	suite.Equal(types.ReasonWarmUp, policy.Signal(golden[:2], types.NewFlatPosition()).Reason)
}

func (suite *StrategyTestSuite) TestRSI() {
	suite.params.RSI = RSIParams{Period: 3, Oversold: 30, Overbought: 70}
	policy, err := NewRSI(suite.params, BuildContext{})
	suite.Require().NoError(err)

	falling := barsFromCloses(day0, 10, 9, 8, 7, 6)
	suite.Equal(types.SignalEnterLong, policy.Signal(falling, types.NewFlatPosition()).Signal)
	suite.Equal(types.SignalHold, policy.Signal(falling, longAt(10, 0)).Signal)

	rising := barsFromCloses(day0, 6, 7, 8, 9, 10)
	suite.Equal(types.SignalExit, policy.Signal(rising, longAt(6, 0)).Signal)
	suite.Equal(types.SignalHold, policy.Signal(rising, types.NewFlatPosition()).Signal)
}

func (suite *StrategyTestSuite) TestMACD() {
	suite.params.MACD = MACDParams{FastPeriod: 2, SlowPeriod: 4, SignalPeriod: 2}
	policy, err := NewMACD(suite.params, BuildContext{})
	suite.Require().NoError(err)

	// An accelerating decline keeps the histogram negative until the rally.
	bars := barsFromCloses(day0, 30, 29, 27, 24, 20, 15, 9, 2, 30)
	suite.Equal(types.SignalEnterLong, policy.Signal(bars, types.NewFlatPosition()).Signal)

	bars = barsFromCloses(day0, 2, 3, 5, 8, 12, 17, 23, 30, 2)
	suite.Equal(types.SignalExit, policy.Signal(bars, longAt(10, 0)).Signal)
}

func (suite *StrategyTestSuite) TestBollingerBands() {
	policy, err := NewBollingerBands(suite.params, BuildContext{})
	suite.Require().NoError(err)

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10
	}

	closes[19] = 5
	bars := barsFromCloses(day0, closes...)
	decision := policy.Signal(bars, types.NewFlatPosition())
	suite.Equal(types.SignalEnterLong, decision.Signal)
	suite.Equal("Price below lower band", decision.Reason)

	closes[19] = 15
	bars = barsFromCloses(day0, closes...)
	suite.Equal(types.SignalExit, policy.Signal(bars, longAt(10, 0)).Signal)
}

func (suite *StrategyTestSuite) TestMonthlySeasonalConfiguredCalendar() {
	suite.params.Seasonal = SeasonalParams{
		FavorableMonths:   []time.Month{time.January},
		UnfavorableMonths: []time.Month{time.April},
		EntryWindowDays:   5,
		TrendPeriod:       3,
	}

	start := time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC)
	bars := barsFromCloses(start, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)
	policy, err := NewMonthlySeasonal(suite.params, NewBuildContext(types.PriceSeries{Bars: bars}))
	suite.Require().NoError(err)

	// bars[4] is January 1st, the first trading day of January in this series.
	decision := policy.Signal(bars[:5], types.NewFlatPosition())
	suite.Equal(types.SignalEnterLong, decision.Signal)
	suite.Equal("January favorable month", decision.Reason)

	// bars[9] is the sixth January bar.
	suite.Equal("Entry window closed", policy.Signal(bars[:10], types.NewFlatPosition()).Reason)

	// December is neutral.
	suite.Equal(types.SignalHold, policy.Signal(bars[:3], types.NewFlatPosition()).Signal)

	february := barsFromCloses(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 10, 11, 12)
	decision = policy.Signal(february, longAt(10, 0))
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal("Favorable month ended", decision.Reason)

	april := barsFromCloses(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 10, 11, 12)
	suite.Equal(types.SignalExit, policy.Signal(april, longAt(10, 0)).Signal)

	regime, ok := policy.(RegimePolicy)
	suite.Require().True(ok)
	suite.True(regime.InUnfavorableRegime(april[0].Date))
	suite.False(regime.InUnfavorableRegime(february[0].Date))
}

func (suite *StrategyTestSuite) TestMonthlySeasonalBelowTrendDoesNotEnter() {
	suite.params.Seasonal = SeasonalParams{
		FavorableMonths: []time.Month{time.January},
		EntryWindowDays: 5,
		TrendPeriod:     3,
	}

	bars := barsFromCloses(day0, 20, 19, 18)
	policy, err := NewMonthlySeasonal(suite.params, NewBuildContext(types.PriceSeries{Bars: bars}))
	suite.Require().NoError(err)
	suite.Equal("Price below trend", policy.Signal(bars, types.NewFlatPosition()).Reason)
}

// seasonalBars returns daily bars for year that rise during up and fall during down.
func seasonalBars(year int, up, down time.Month, price float64) []types.PriceBar {
	bars := []types.PriceBar{}

	for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		switch d.Month() {
		case up:
			price *= 1.004
		case down:
			price *= 0.996
		default:
			price *= 1.0001
		}

		bars = append(bars, types.PriceBar{Date: d, Close: price, Open: price, High: price, Low: price})
	}

	return bars
}

func (suite *StrategyTestSuite) TestMonthlySeasonalDerivesCalendar() {
	bars := seasonalBars(2022, time.March, time.September, 100)

	policy, err := NewMonthlySeasonal(suite.params, NewBuildContext(types.PriceSeries{Bars: bars}))
	suite.Require().NoError(err)

	calendar := policy.(*MonthlySeasonal).Calendar()
	suite.Len(calendar.Favorable, 4)
	suite.Equal(time.March, calendar.Favorable[0])
	suite.Equal(time.September, calendar.Unfavorable[0])
}

func (suite *StrategyTestSuite) TestMonthlySeasonalLearnsFromPriorBars() {
	prior := seasonalBars(2022, time.March, time.September, 100)
	simulated := seasonalBars(2023, time.September, time.March, prior[len(prior)-1].Close)
	all := types.PriceSeries{Symbol: "SPY", Bars: append(append([]types.PriceBar{}, prior...), simulated...)}

	ctx := NewBuildContext(all).Restrict(types.PriceSeries{Symbol: "SPY", Bars: simulated})
	policy, err := NewMonthlySeasonal(suite.params, ctx)
	suite.Require().NoError(err)

	calendar := policy.(*MonthlySeasonal).Calendar()
	suite.Equal(time.March, calendar.Favorable[0])
	suite.Equal(time.September, calendar.Unfavorable[0])

	// A prior year missing months falls back to the simulated bars.
	partial := types.PriceSeries{Symbol: "SPY", Bars: append(append([]types.PriceBar{}, prior[265:]...), simulated...)}
	ctx = NewBuildContext(partial).Restrict(types.PriceSeries{Symbol: "SPY", Bars: simulated})
	suite.Len(ctx.Prior, 100)

	policy, err = NewMonthlySeasonal(suite.params, ctx)
	suite.Require().NoError(err)
	suite.Equal(time.September, policy.(*MonthlySeasonal).Calendar().Favorable[0])
}

func (suite *StrategyTestSuite) TestRestrict() {
	bars := barsFromCloses(day0, 10, 11, 12, 13, 14)
	ctx := NewBuildContext(types.PriceSeries{Symbol: "SPY", Bars: bars})

	restricted := ctx.Restrict(types.PriceSeries{Symbol: "SPY", Bars: bars[2:4]})
	suite.Equal(bars[:2], restricted.Prior)
	suite.Equal(bars[2:4], restricted.Series.Bars)

	again := restricted.Restrict(types.PriceSeries{Symbol: "SPY", Bars: bars[3:4]})
	suite.Equal(bars[:3], again.Prior)

	suite.Empty(ctx.Restrict(types.PriceSeries{Symbol: "SPY"}).Prior)
}

func (suite *StrategyTestSuite) TestBuyHoldExitsOnLastDate() {
	bars := barsFromCloses(day0, 10, 11, 12, 13)
	policy, err := NewBuyHold(suite.params, NewBuildContext(types.PriceSeries{Symbol: "SPY", Bars: bars}).
		Restrict(types.PriceSeries{Symbol: "SPY", Bars: bars[1:3]}))
	suite.Require().NoError(err)

	suite.Equal(types.SignalEnterLong, policy.Signal(bars[1:2], types.NewFlatPosition()).Signal)
	suite.Equal(types.SignalExit, policy.Signal(bars[1:3], longAt(11, 0)).Signal)
}

func (suite *StrategyTestSuite) TestMomentumBreakout() {
	suite.params.Momentum = MomentumParams{BreakoutPeriod: 3, ExitPeriod: 3}
	policy, err := NewMomentumBreakout(suite.params, BuildContext{})
	suite.Require().NoError(err)
	suite.Equal(4, policy.WarmUp())

	suite.Equal(types.SignalEnterLong, policy.Signal(barsFromCloses(day0, 10, 11, 12, 11, 13), types.NewFlatPosition()).Signal)
	suite.Equal(types.SignalExit, policy.Signal(barsFromCloses(day0, 10, 11, 12, 11, 9), longAt(12, 2)).Signal)
	suite.Equal(types.SignalHold, policy.Signal(barsFromCloses(day0, 10, 11, 12, 11, 12), types.NewFlatPosition()).Signal)
}

func (suite *StrategyTestSuite) pairContext(lastPrimary float64, stationary bool) ([]types.PriceBar, BuildContext) {
	primaryCloses := make([]float64, 20)
	secondaryCloses := make([]float64, 20)

	for i := range primaryCloses {
		primaryCloses[i] = 100 + float64(i%2)
		secondaryCloses[i] = 50
	}

	primaryCloses[19] = lastPrimary
	primary := barsFromCloses(day0, primaryCloses...)
	secondary := barsFromCloses(day0, secondaryCloses...)

	analytics := types.PairAnalytics{
		SymbolA:          "GLD",
		SymbolB:          "SLV",
		IsStationaryPair: stationary,
		HedgeRatio:       1,
		PValue:           0.01,
	}

	ctx := NewBuildContext(types.PriceSeries{Symbol: "GLD", Bars: primary}).
		WithPair(types.PriceSeries{Symbol: "SLV", Bars: secondary}, analytics)

	return primary, ctx
}

func (suite *StrategyTestSuite) TestPairMeanReversionEntries() {
	bars, ctx := suite.pairContext(90, true)
	policy, err := NewPairMeanReversion(suite.params, ctx)
	suite.Require().NoError(err)
	suite.Nil(policy.(GatedPolicy).Eligibility())
	suite.Equal(types.SignalEnterLong, policy.Signal(bars, types.NewFlatPosition()).Signal)

	bars, ctx = suite.pairContext(110, true)
	policy, err = NewPairMeanReversion(suite.params, ctx)
	suite.Require().NoError(err)
	suite.Equal(types.SignalEnterShort, policy.Signal(bars, types.NewFlatPosition()).Signal)

	bars, ctx = suite.pairContext(100, true)
	policy, err = NewPairMeanReversion(suite.params, ctx)
	suite.Require().NoError(err)
	suite.Equal(types.SignalCover, policy.Signal(bars, shortAt(110, 15)).Signal)
	suite.Equal(types.SignalHold, policy.Signal(bars, longAt(90, 15)).Signal)
}

func (suite *StrategyTestSuite) TestPairReadsMeasureByDate() {
	bars, ctx := suite.pairContext(90, true)
	policy, err := NewPairMeanReversion(suite.params, ctx)
	suite.Require().NoError(err)

	// a history that starts later than the series the policy was built on
	suite.Equal(types.SignalEnterLong, policy.Signal(bars[5:], types.NewFlatPosition()).Signal)

	unknown := barsFromCloses(day0.AddDate(1, 0, 0), 90)
	suite.Equal("Pair data not aligned", policy.Signal(unknown, types.NewFlatPosition()).Reason)
}

func (suite *StrategyTestSuite) TestPairMaxHoldingPeriod() {
	suite.params.Pair.MaxHoldingBars = 5
	bars, ctx := suite.pairContext(90, true)
	policy, err := NewRatioTrading(suite.params, ctx)
	suite.Require().NoError(err)

	decision := policy.Signal(bars, longAt(90, 10))
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal(types.ReasonMaxHoldingTime, decision.Reason)
}

func (suite *StrategyTestSuite) TestPairRefusesNonStationaryPair() {
	bars, ctx := suite.pairContext(90, false)
	policy, err := NewPairMeanReversion(suite.params, ctx)
	suite.Require().NoError(err)

	gated, ok := policy.(GatedPolicy)
	suite.Require().True(ok)
	suite.True(errors.HasCode(gated.Eligibility(), errors.ErrCodeNonStationaryPair))
	suite.Equal(types.SignalHold, policy.Signal(bars, types.NewFlatPosition()).Signal)
}

func (suite *StrategyTestSuite) TestPairRequiresSecondary() {
	_, err := NewPairMeanReversion(suite.params, NewBuildContext(types.PriceSeries{}))
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *StrategyTestSuite) TestParametersValidate() {
	suite.NoError(DefaultParameters().Validate())

	params := DefaultParameters()
	params.SmaCrossover.SlowPeriod = 10
	params.SmaCrossover.FastPeriod = 20
	suite.True(errors.HasCode(params.Validate(), errors.ErrCodeStrategyConfigError))

	params = DefaultParameters()
	params.Seasonal.FavorableMonths = []time.Month{13}
	suite.Error(params.Validate())
}

func (suite *StrategyTestSuite) TestRegistry() {
	registry := NewDefaultRegistry()
	suite.Len(registry.List(), len(SingleInstrumentStrategies)+len(PairStrategies))

	policy, err := registry.Build(StrategyRSI, suite.params, BuildContext{})
	suite.NoError(err)
	suite.Equal(StrategyRSI, policy.ID())

	_, err = registry.Build("turtle", suite.params, BuildContext{})
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))

	suite.Error(registry.Register(StrategyRSI, NewRSI))
	suite.NoError(registry.Remove(StrategyRSI))
	suite.Error(registry.Remove(StrategyRSI))

	invalid := DefaultParameters()
	invalid.RSI.Overbought = 10
	_, err = registry.Build(StrategyMACD, invalid, BuildContext{})
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *StrategyTestSuite) TestParametersSchema() {
	out, err := ParametersSchema()
	suite.Require().NoError(err)
	suite.Contains(out, "sma_crossover")
	suite.Contains(out, "entry_z_score")
}
