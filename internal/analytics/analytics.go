// Package analytics derives performance statistics from a trade ledger and an equity curve.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TradingDaysPerYear annualizes the Sharpe and Sortino ratios.
const TradingDaysPerYear = 252

// Analyze computes the statistics of a completed run. years is the length of the
// simulated period and only affects the annualized return.
func Analyze(initialCapital float64, ledger []types.Trade, equity []types.EquityPoint, years float64) types.PerformanceStats {
	stats := types.PerformanceStats{}

	stats.FinalValue = initialCapital
	if len(equity) > 0 {
		stats.FinalValue = equity[len(equity)-1].PortfolioValue
	}

	stats.TotalReturnPct = TotalReturnPct(initialCapital, stats.FinalValue)
	stats.AnnualReturnPct = AnnualReturnPct(initialCapital, stats.FinalValue, years)
	stats.MaxDrawdownPct = MaxDrawdownPct(equity)

	returns := DailyReturns(equity)
	stats.SharpeRatio = SharpeRatio(returns)
	stats.SortinoRatio = SortinoRatio(returns)

	applyTradeStats(&stats, ledger)
	stats.ExposurePct = ExposurePct(ledger, equity)

	return stats
}

func TotalReturnPct(initialCapital, finalValue float64) float64 {
	if initialCapital <= 0 {
		return 0
	}

	return (finalValue/initialCapital - 1) * 100
}

// AnnualReturnPct is the compound annual growth rate. A period of zero years reports zero.
func AnnualReturnPct(initialCapital, finalValue, years float64) float64 {
	if initialCapital <= 0 || years <= 0 {
		return 0
	}

	if finalValue <= 0 {
		return -100
	}

	return (math.Pow(finalValue/initialCapital, 1/years) - 1) * 100
}

// MaxDrawdownPct is the largest peak-to-trough decline of the curve as a non-positive percentage.
func MaxDrawdownPct(equity []types.EquityPoint) float64 {
	peak := 0.0
	drawdown := 0.0

	for _, point := range equity {
		peak = math.Max(peak, point.PortfolioValue)
		if peak <= 0 {
			continue
		}

		drawdown = math.Min(drawdown, (point.PortfolioValue/peak-1)*100)
	}

	return drawdown
}

// DailyReturns converts the curve to bar-over-bar returns, skipping non-positive bases.
func DailyReturns(equity []types.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].PortfolioValue
		if prev <= 0 {
			continue
		}

		returns = append(returns, equity[i].PortfolioValue/prev-1)
	}

	return returns
}

// SharpeRatio is mean/stdev of the returns annualized with √252. A flat series reports zero.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean, stdDev := stat.MeanStdDev(returns, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	return mean / stdDev * math.Sqrt(TradingDaysPerYear)
}

// SortinoRatio divides the mean return by the downside deviation, the root mean square
// of the negative returns taken over every period.
func SortinoRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	downside := make([]float64, len(returns))
	for i, r := range returns {
		downside[i] = math.Min(r, 0)
	}

	deviation := math.Sqrt(floats.Dot(downside, downside) / float64(len(downside)))
	if deviation == 0 {
		return 0
	}

	return stat.Mean(returns, nil) / deviation * math.Sqrt(TradingDaysPerYear)
}

func applyTradeStats(stats *types.PerformanceStats, ledger []types.Trade) {
	stats.TotalTrades = len(ledger)

	for _, trade := range ledger {
		stats.TotalFees += trade.Fees()
	}

	for _, pnl := range types.ClosedPnLs(ledger) {
		stats.ClosedTrades++

		switch {
		case pnl > 0:
			stats.WinningTrades++
			stats.GrossProfit += pnl
		case pnl < 0:
			stats.LosingTrades++
			stats.GrossLoss += -pnl
		}
	}

	if stats.ClosedTrades == 0 {
		return
	}

	stats.WinRatePct = float64(stats.WinningTrades) / float64(stats.ClosedTrades) * 100

	if stats.WinningTrades > 0 {
		stats.AvgWin = stats.GrossProfit / float64(stats.WinningTrades)
	}

	if stats.LosingTrades > 0 {
		stats.AvgLoss = -stats.GrossLoss / float64(stats.LosingTrades)
		stats.RiskRewardRatio = stats.AvgWin / math.Abs(stats.AvgLoss)
	}

	stats.ProfitFactor = ProfitFactor(stats.GrossProfit, stats.GrossLoss)
}

// ProfitFactor is gross profit over gross loss, capped at types.ProfitFactorCap.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return types.ProfitFactorCap
		}

		return 0
	}

	return math.Min(grossProfit/grossLoss, types.ProfitFactorCap)
}

// ExposurePct is the share of equity points at which a position was held, counting
// from the opening bar up to but excluding the closing bar.
func ExposurePct(ledger []types.Trade, equity []types.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	held := 0
	open := false
	next := 0

	for _, point := range equity {
		for next < len(ledger) && !ledger[next].Date.After(point.Date) {
			open = ledger[next].Type.IsOpen()
			next++
		}

		if open {
			held++
		}
	}

	return float64(held) / float64(len(equity)) * 100
}
