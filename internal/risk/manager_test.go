package risk

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ManagerTestSuite struct {
	suite.Suite
	log *logger.Logger
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupSuite() {
	suite.log = logger.NewNopLogger()
}

type monthRegime time.Month

func (r monthRegime) InUnfavorableRegime(date time.Time) bool {
	return date.Month() == time.Month(r)
}

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func bars(closes ...float64) []types.PriceBar {
	out := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = types.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}

	return out
}

func (suite *ManagerTestSuite) enter(manager *Manager, status types.PositionStatus, history []types.PriceBar) types.PositionState {
	state := types.NewFlatPosition()
	state.Status = status
	state.EntryPrice = history[len(history)-1].Close
	state.EntryIndex = len(history) - 1
	state.Quantity = 1
	manager.OnEntry(history, &state)

	return state
}

func (suite *ManagerTestSuite) TestBuyFirstDowngradesSells() {
	manager := NewManager(DefaultConfig(), nil, suite.log)
	state := types.NewFlatPosition()

	for _, signal := range []types.SignalType{types.SignalExit, types.SignalEnterShort} {
		decision := manager.Evaluate(bars(100), types.NewDecision(signal, "policy"), &state)
		suite.Equal(types.SignalHold, decision.Signal)
		suite.Equal(types.ReasonBuyFirstSkip, decision.Reason)
	}

	suite.Equal(2, manager.SkippedSignals())

	decision := manager.Evaluate(bars(100), types.NewDecision(types.SignalEnterLong, "policy"), &state)
	suite.Equal(types.SignalEnterLong, decision.Signal)
}

func (suite *ManagerTestSuite) TestShortAllowedWithoutBuyFirst() {
	config := DefaultConfig()
	config.EnforceBuyFirst = false
	manager := NewManager(config, nil, suite.log)
	state := types.NewFlatPosition()

	suite.Equal(types.SignalEnterShort, manager.Evaluate(bars(100), types.NewDecision(types.SignalEnterShort, "z"), &state).Signal)
	suite.Equal(types.SignalHold, manager.Evaluate(bars(100), types.NewDecision(types.SignalExit, "z"), &state).Signal)
	suite.Equal(0, manager.SkippedSignals())
}

func (suite *ManagerTestSuite) TestStopLossOverridesHold() {
	manager := NewManager(DefaultConfig(), nil, suite.log)
	state := suite.enter(manager, types.PositionLong, bars(100))
	suite.InDelta(92.0, state.StopLossPrice, 1e-9)

	decision := manager.Evaluate(bars(100, 95), types.Hold("policy"), &state)
	suite.Equal(types.SignalHold, decision.Signal)

	decision = manager.Evaluate(bars(100, 95, 91.5), types.Hold("policy"), &state)
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal(types.ReasonStopLoss, decision.Reason)
}

func (suite *ManagerTestSuite) TestStopLossHasPriorityOverRegime() {
	manager := NewManager(DefaultConfig(), monthRegime(time.January), suite.log)
	state := suite.enter(manager, types.PositionLong, bars(100))

	decision := manager.Evaluate(bars(100, 80), types.Hold("policy"), &state)
	suite.Equal(types.ReasonStopLoss, decision.Reason)

	state = suite.enter(manager, types.PositionLong, bars(100))
	decision = manager.Evaluate(bars(100, 101), types.Hold("policy"), &state)
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal(types.ReasonWorstMonth, decision.Reason)
}

func (suite *ManagerTestSuite) TestRegimeBlocksEntries() {
	manager := NewManager(DefaultConfig(), monthRegime(time.January), suite.log)
	state := types.NewFlatPosition()

	decision := manager.Evaluate(bars(100), types.NewDecision(types.SignalEnterLong, "policy"), &state)
	suite.Equal(types.SignalHold, decision.Signal)
}

func (suite *ManagerTestSuite) TestTrailingStop() {
	manager := NewManager(DefaultConfig(), nil, suite.log)
	state := suite.enter(manager, types.PositionLong, bars(100))

	// +8% does not arm the trailing stop.
	manager.Evaluate(bars(100, 108), types.Hold("policy"), &state)
	suite.False(state.TrailingStopActive)

	decision := manager.Evaluate(bars(100, 108, 120), types.Hold("policy"), &state)
	suite.True(state.TrailingStopActive)
	suite.Equal(types.SignalHold, decision.Signal)
	suite.Equal(120.0, state.PeakPriceSinceEntry)

	decision = manager.Evaluate(bars(100, 108, 120, 115), types.Hold("policy"), &state)
	suite.Equal(types.SignalHold, decision.Signal)

	decision = manager.Evaluate(bars(100, 108, 120, 115, 113.9), types.Hold("policy"), &state)
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal(types.ReasonTrailingStop, decision.Reason)
}

func (suite *ManagerTestSuite) TestShortPositionRules() {
	manager := NewManager(DefaultConfig(), nil, suite.log)
	state := suite.enter(manager, types.PositionShort, bars(100))
	suite.InDelta(108.0, state.StopLossPrice, 1e-9)

	decision := manager.Evaluate(bars(100, 109), types.Hold("policy"), &state)
	suite.Equal(types.SignalCover, decision.Signal)
	suite.Equal(types.ReasonStopLoss, decision.Reason)

	state = suite.enter(manager, types.PositionShort, bars(100))
	manager.Evaluate(bars(100, 85), types.Hold("policy"), &state)
	suite.True(state.TrailingStopActive)

	decision = manager.Evaluate(bars(100, 85, 90), types.Hold("policy"), &state)
	suite.Equal(types.SignalCover, decision.Signal)
	suite.Equal(types.ReasonTrailingStop, decision.Reason)
}

func (suite *ManagerTestSuite) TestTakeProfitAndStrategyExit() {
	config := DefaultConfig()
	config.TakeProfit = 0.05
	config.TrailingStopDistance = 0
	manager := NewManager(config, nil, suite.log)
	state := suite.enter(manager, types.PositionLong, bars(100))

	decision := manager.Evaluate(bars(100, 106), types.Hold("policy"), &state)
	suite.Equal(types.ReasonTakeProfit, decision.Reason)

	decision = manager.Evaluate(bars(100, 101), types.NewDecision(types.SignalExit, "Death Cross"), &state)
	suite.Equal(types.SignalExit, decision.Signal)
	suite.Equal("Death Cross", decision.Reason)

	decision = manager.Evaluate(bars(100, 101), types.NewDecision(types.SignalEnterLong, "again"), &state)
	suite.Equal(types.SignalHold, decision.Signal)
}

func (suite *ManagerTestSuite) TestStopLossMethods() {
	history := bars(100, 100, 100, 100, 100)

	tests := []struct {
		name     string
		method   StopLossMethod
		value    float64
		expected float64
	}{
		{name: "percentage", method: StopLossPercentage, value: 0.1, expected: 90},
		{name: "fixed", method: StopLossFixed, value: 7, expected: 93},
		{name: "atr multiple", method: StopLossATR, value: 2, expected: 96},
		{name: "none", method: StopLossNone, value: 0.1, expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			config.StopLossMethod = tc.method
			config.StopLossValue = tc.value
			config.ATRPeriod = 3
			manager := NewManager(config, nil, suite.log)

			suite.InDelta(tc.expected, manager.StopLossPrice(history, types.PositionLong, 100), 1e-9)
		})
	}
}

func (suite *ManagerTestSuite) TestATRStopWithoutHistory() {
	config := DefaultConfig()
	config.StopLossMethod = StopLossATR
	manager := NewManager(config, nil, suite.log)

	suite.Equal(0.0, manager.StopLossPrice(bars(100), types.PositionLong, 100))
}

func (suite *ManagerTestSuite) TestConfigValidate() {
	suite.NoError(DefaultConfig().Validate())

	config := DefaultConfig()
	config.StopLossValue = 1.5
	suite.True(errors.HasCode(config.Validate(), errors.ErrCodeInvalidStopLoss))

	config = DefaultConfig()
	config.StopLossMethod = "guess"
	suite.Error(config.Validate())
}
