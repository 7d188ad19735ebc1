package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/growth"
)

type RenderTestSuite struct {
	suite.Suite
}

func TestRenderSuite(t *testing.T) {
	suite.Run(t, new(RenderTestSuite))
}

func (suite *RenderTestSuite) result(id string, ret float64) types.BacktestResult {
	return types.BacktestResult{
		Symbol:         "SPY",
		StrategyID:     id,
		StrategyName:   id,
		InitialCapital: 10000,
		StartDate:      time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
		PerformanceStats: types.PerformanceStats{
			FinalValue:     10000 * (1 + ret/100),
			TotalReturnPct: ret,
			TotalTrades:    2,
			ClosedTrades:   1,
			WinRatePct:     100,
		},
		EquityCurve: []types.EquityPoint{{Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), PortfolioValue: 10000}},
	}
}

func (suite *RenderTestSuite) TestRenderResult() {
	result := suite.result("buy_hold", 12.5)
	result.Notes = []string{"insufficient cash for 3 signals"}

	out := RenderResult(result)
	suite.Contains(out, "buy_hold on SPY")
	suite.Contains(out, "2020-01-02 to 2021-12-31")
	suite.Contains(out, "$11250.00")
	suite.Contains(out, "12.50%")
	suite.Contains(out, "note: insufficient cash for 3 signals")
}

func (suite *RenderTestSuite) TestWinRateWithoutClosedTrades() {
	result := suite.result("rsi", 0)
	result.ClosedTrades = 0

	suite.Equal("N/A", winRate(result.PerformanceStats))
	suite.Contains(RenderResult(result), "N/A")
}

func (suite *RenderTestSuite) TestRenderComparison() {
	skipped := types.BacktestResult{
		Symbol:       "SPY",
		StrategyID:   "pair_mean_reversion",
		StrategyName: "pair_mean_reversion",
		Notes:        []string{"requires a secondary series"},
	}

	out := RenderComparison(types.Comparison{
		Symbol:           "SPY",
		InitialCapital:   10000,
		Results:          []types.BacktestResult{suite.result("buy_hold", 20), suite.result("sma_crossover", 8), skipped},
		BestStrategy:     "buy_hold",
		BuyHoldReturnPct: 20,
	})

	suite.Contains(out, "Strategy comparison for SPY with $10000.00")
	suite.Contains(out, "skipped")
	suite.Contains(out, "Buy & hold return: 20.00%")
	suite.Contains(out, "Best strategy: buy_hold")
	suite.Contains(out, "pair_mean_reversion: requires a secondary series")
}

func (suite *RenderTestSuite) TestRenderSweep() {
	out := RenderSweep([]types.CalculatorRow{
		{Capital: 1000, FinalValue: 1100, Profit: 100, TotalReturnPct: 10, TotalTrades: 1},
		{Capital: 5000, FinalValue: 5500, Profit: 500, TotalReturnPct: 10, TotalTrades: 1},
	})

	suite.Contains(out, "$1000.00")
	suite.Contains(out, "$5500.00")
	suite.Contains(out, "10.00%")
}

func (suite *RenderTestSuite) TestRenderPairs() {
	suite.Contains(RenderPairs(nil), "No pair scored high enough")

	out := RenderPairs([]types.PairAnalytics{{
		SymbolA:            "GLD",
		SymbolB:            "GDX",
		PearsonCorrelation: 0.91,
		PValue:             0.01,
		IsStationaryPair:   true,
		HalfLife:           12.34,
		HedgeRatio:         1.2,
		Score:              85,
		StrategyType:       types.PairStrategyMeanReversion,
		RiskLevel:          types.RiskLevelLow,
	}})

	suite.Contains(out, "GLD/GDX")
	suite.Contains(out, "12.3")
	suite.Contains(out, "MeanReversion")
	suite.Contains(out, "Low")
}

func (suite *RenderTestSuite) TestStrategiesCommand() {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out

	suite.Require().NoError(cmd.Run(context.Background(), []string{"backtest", "--config", "missing.yaml", "strategies"}))
	for _, id := range strategy.NewDefaultRegistry().List() {
		suite.Contains(out.String(), string(id))
	}
}

func (suite *RenderTestSuite) TestSchemaCommand() {
	for _, target := range []string{"engine", "strategies"} {
		suite.Run(target, func() {
			var out bytes.Buffer

			cmd := newCommand()
			cmd.Writer = &out

			suite.Require().NoError(cmd.Run(context.Background(), []string{"backtest", "--config", "missing.yaml", "schema", target}))
			suite.Contains(out.String(), "\"properties\"")
		})
	}
}

func (suite *RenderTestSuite) TestRenderGrowth() {
	out := RenderGrowth(growth.Analyze(growth.Fundamentals{Revenues: []float64{100, 130}, ProfitMarginPct: optional.Some(18.0)}))

	suite.Contains(out, "Weak Growth (40/100)")
	suite.Contains(out, "30.00%")
	suite.Contains(out, "48.00")
	suite.Contains(out, "N/A")
	suite.NotContains(out, "payout ratio")
}

func (suite *RenderTestSuite) TestGrowthCommand() {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out

	suite.Require().NoError(cmd.Run(context.Background(), []string{
		"backtest", "--config", "missing.yaml", "growth",
		"--revenues", "100,130", "--trailing-eps", "2", "--forward-eps", "2.5",
		"--pe", "30", "--margin", "18", "--fcf", "5,8", "--dividend", "1", "--json",
	}))

	var report growth.Report
	suite.Require().NoError(json.Unmarshal(out.Bytes(), &report))
	suite.Equal(100, report.Score)
	suite.Equal(growth.RatingStrong, report.Rating)
	suite.InDelta(50.0, report.PayoutRatioPct.Unwrap(), 1e-9)
}
