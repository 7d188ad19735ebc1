package engine

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestLifecycleCallbacksAreOptional() {
	var callbacks LifecycleCallbacks

	suite.Nil(callbacks.OnRunStart)
	suite.Nil(callbacks.OnRunEnd)
	suite.Nil(callbacks.OnProcessData)

	var received types.BacktestResult
	onEnd := OnRunEndCallback(func(result types.BacktestResult) { received = result })
	onStart := OnRunStartCallback(func(_ string, id strategy.StrategyID, _ int) error {
		suite.Equal(strategy.StrategyRSI, id)
		return nil
	})

	callbacks.OnRunEnd = &onEnd
	callbacks.OnRunStart = &onStart

	suite.NoError((*callbacks.OnRunStart)("run", strategy.StrategyRSI, 10))
	(*callbacks.OnRunEnd)(types.BacktestResult{Symbol: "SPY"})
	suite.Equal("SPY", received.Symbol)
}
