package engine

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// BacktestStateTestSuite is a test suite for BacktestState
type BacktestStateTestSuite struct {
	suite.Suite
	logger *logger.Logger
	runID  uuid.UUID
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()
	suite.runID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("state-test"))
}

func (suite *BacktestStateTestSuite) newState(capital float64, broker commission_fee.Broker) *BacktestState {
	return NewBacktestState(suite.runID, capital, commission_fee.GetCommissionFeeHandler(broker), DefaultDecimalPrecision, suite.logger)
}

func bar(date time.Time, price float64) types.PriceBar {
	return types.PriceBar{Date: date, Open: price, High: price, Low: price, Close: price, Volume: 1}
}

var stateDay0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func (suite *BacktestStateTestSuite) TestPositionSize() {
	tests := []struct {
		name      string
		broker    commission_fee.Broker
		capital   float64
		price     float64
		precision int
		expected  float64
	}{
		{name: "zero commission uses all cash", broker: commission_fee.BrokerZero, capital: 10000, price: 100, precision: 4, expected: 100},
		{name: "minimum commission reduces size", broker: commission_fee.BrokerInteractiveBroker, capital: 10000, price: 100, precision: 4, expected: 99.99},
		{name: "whole units", broker: commission_fee.BrokerInteractiveBroker, capital: 10000, price: 100, precision: 0, expected: 99},
		{name: "fractional", broker: commission_fee.BrokerZero, capital: 1000, price: 300, precision: 4, expected: 3.3333},
		{name: "cannot afford one whole unit", broker: commission_fee.BrokerZero, capital: 100, price: 300, precision: 0, expected: 0},
		{name: "invalid price", broker: commission_fee.BrokerZero, capital: 100, price: 0, precision: 4, expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			state := NewBacktestState(suite.runID, tc.capital, commission_fee.GetCommissionFeeHandler(tc.broker), tc.precision, suite.logger)
			suite.InDelta(tc.expected, state.PositionSize(types.TradeTypeBuyOpen, tc.price), 1e-9)
		})
	}
}

func (suite *BacktestStateTestSuite) TestLongRoundTrip() {
	state := suite.newState(10000, commission_fee.BrokerZero)

	open := state.Open(bar(stateDay0, 100), 0, types.PositionLong, 100, "entry")
	suite.Equal(types.TradeTypeBuyOpen, open.Type)
	suite.True(open.PnL.IsNone())
	suite.InDelta(0.0, state.Cash(), 1e-9)
	suite.True(state.Position().IsLong())
	suite.InDelta(10500.0, state.Equity(105).InexactFloat64(), 1e-9)

	closeTrade := state.Close(bar(stateDay0.AddDate(0, 0, 7), 110), "exit")
	suite.Equal(types.TradeTypeSellClose, closeTrade.Type)
	suite.InDelta(1000.0, closeTrade.PnL.Unwrap(), 1e-9)
	suite.Equal(7, closeTrade.HoldingDays)
	suite.Equal("exit", closeTrade.Reason)
	suite.InDelta(11000.0, state.Cash(), 1e-9)
	suite.True(state.Position().IsFlat())
	suite.Len(state.Ledger(), 2)
	suite.NotEqual(state.Ledger()[0].ID, state.Ledger()[1].ID)
}

func (suite *BacktestStateTestSuite) TestShortRoundTrip() {
	state := suite.newState(10000, commission_fee.BrokerZero)

	state.Open(bar(stateDay0, 50), 0, types.PositionShort, 200, "short")
	suite.InDelta(20000.0, state.Cash(), 1e-9)
	suite.InDelta(11000.0, state.Equity(45).InexactFloat64(), 1e-9)

	trade := state.Close(bar(stateDay0.AddDate(0, 0, 3), 40), "cover")
	suite.Equal(types.TradeTypeBuyCover, trade.Type)
	suite.InDelta(2000.0, trade.PnL.Unwrap(), 1e-9)
	suite.InDelta(12000.0, state.Cash(), 1e-9)
}

func (suite *BacktestStateTestSuite) TestFeesReducePnL() {
	state := suite.newState(10000, commission_fee.BrokerInteractiveBroker)

	state.Open(bar(stateDay0, 100), 0, types.PositionLong, 50, "entry")
	suite.InDelta(10000-5000-1, state.Cash(), 1e-9)

	trade := state.Close(bar(stateDay0.AddDate(0, 0, 1), 100), "exit")
	suite.InDelta(-2.0, trade.PnL.Unwrap(), 1e-9)
	suite.Equal(1.0, trade.Commission)
	suite.InDelta(9998.0, state.Cash(), 1e-9)
}

func (suite *BacktestStateTestSuite) TestCMEFinancingChargedAtClose() {
	state := suite.newState(10000, commission_fee.BrokerCME)

	open := state.Open(bar(stateDay0, 100), 0, types.PositionLong, 1, "entry")
	suite.Equal(0.0, open.FinancingAccrued)
	suite.Equal(2.5, open.Commission)
	suite.Equal(1.5, open.ExchangeFee)
	suite.Equal(0.5, open.ClearingFee)

	trade := state.Close(bar(stateDay0.AddDate(0, 0, 10), 100), "exit")
	suite.InDelta(100*0.05*0.000137*10, trade.FinancingAccrued, 1e-12)
	suite.InDelta(-9.01, trade.PnL.Unwrap(), 1e-9)
}

func (suite *BacktestStateTestSuite) TestCloseWritesOffShortfall() {
	state := suite.newState(1000, commission_fee.BrokerZero)

	state.Open(bar(stateDay0, 100), 0, types.PositionShort, 10, "short")
	trade := state.Close(bar(stateDay0.AddDate(0, 0, 1), 250), "margin")

	// the cover costs 2500 against 2000 of cash
	suite.InDelta(500.0, trade.WrittenOff, 1e-9)
	suite.InDelta(-1000.0, trade.PnL.Unwrap(), 1e-9)
	suite.InDelta(0.0, state.Cash(), 1e-9)

	// the ledger and the account agree
	suite.InDelta(1000+trade.PnL.Unwrap(), state.Equity(250).InexactFloat64(), 1e-9)
	suite.Equal(0.0, state.PositionSize(types.TradeTypeBuyOpen, 10))
}

func (suite *BacktestStateTestSuite) TestCloseWithinCashWritesNothingOff() {
	state := suite.newState(1000, commission_fee.BrokerZero)

	state.Open(bar(stateDay0, 100), 0, types.PositionShort, 10, "short")
	trade := state.Close(bar(stateDay0.AddDate(0, 0, 1), 150), "cover")

	suite.Equal(0.0, trade.WrittenOff)
	suite.InDelta(-500.0, trade.PnL.Unwrap(), 1e-9)
	suite.InDelta(500.0, state.Cash(), 1e-9)
}

func (suite *BacktestStateTestSuite) TestMarkRecordsEquity() {
	state := suite.newState(1000, commission_fee.BrokerZero)

	state.Mark(bar(stateDay0, 10))
	state.Open(bar(stateDay0.AddDate(0, 0, 1), 10), 1, types.PositionLong, 100, "entry")
	state.Mark(bar(stateDay0.AddDate(0, 0, 1), 10))
	state.Mark(bar(stateDay0.AddDate(0, 0, 2), 12.345))

	curve := state.EquityCurve()
	suite.Require().Len(curve, 3)
	suite.Equal(1000.0, curve[0].PortfolioValue)
	suite.Equal(1000.0, curve[1].PortfolioValue)
	suite.Equal(1234.5, curve[2].PortfolioValue)
}

func (suite *BacktestStateTestSuite) TestTradeIDsAreDeterministic() {
	first := suite.newState(10000, commission_fee.BrokerZero)
	second := suite.newState(10000, commission_fee.BrokerZero)

	for _, state := range []*BacktestState{first, second} {
		state.Open(bar(stateDay0, 100), 0, types.PositionLong, 10, "entry")
		state.Close(bar(stateDay0.AddDate(0, 0, 1), 101), "exit")
	}

	suite.Equal(first.Ledger(), second.Ledger())
}

func (suite *BacktestStateTestSuite) TestWrite() {
	dir, err := os.MkdirTemp("", "state-write")
	suite.Require().NoError(err)
	defer os.RemoveAll(dir)

	state := suite.newState(10000, commission_fee.BrokerZero)
	state.Mark(bar(stateDay0, 100))
	state.Open(bar(stateDay0.AddDate(0, 0, 1), 100), 1, types.PositionLong, 10, "entry")
	state.Mark(bar(stateDay0.AddDate(0, 0, 1), 100))
	state.Close(bar(stateDay0.AddDate(0, 0, 2), 105), "exit")
	state.Mark(bar(stateDay0.AddDate(0, 0, 2), 105))

	tradesPath, equityPath, err := state.Write(dir)
	suite.Require().NoError(err)
	suite.FileExists(tradesPath)
	suite.FileExists(equityPath)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var trades int

	var totalPnL float64
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*), COALESCE(SUM(pnl), 0) FROM read_parquet('"+tradesPath+"')").Scan(&trades, &totalPnL))
	suite.Equal(2, trades)
	suite.InDelta(50.0, totalPnL, 1e-9)

	var points int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + equityPath + "')").Scan(&points))
	suite.Equal(3, points)
}
