package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/growth"
)

var (
	TitleStyle  = lipgloss.NewStyle().Bold(true)
	HelpStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// winRate shows N/A when no trade was closed.
func winRate(stats types.PerformanceStats) string {
	if !stats.HasClosedTrades() {
		return "N/A"
	}

	return pct(stats.WinRatePct)
}

// RenderResult renders the summary of one backtest.
func RenderResult(result types.BacktestResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s on %s", result.StrategyName, result.Symbol)))
	b.WriteString("\n")

	if !result.StartDate.IsZero() {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("%s to %s", result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"))))
		b.WriteString("\n")
	}

	t := newTable("Metric", "Value").Rows(
		[]string{"Initial capital", money(result.InitialCapital)},
		[]string{"Final value", money(result.FinalValue)},
		[]string{"Total return", pct(result.TotalReturnPct)},
		[]string{"Annual return", pct(result.AnnualReturnPct)},
		[]string{"Outperformance", pct(result.OutperformancePct)},
		[]string{"Max drawdown", pct(result.MaxDrawdownPct)},
		[]string{"Win rate", winRate(result.PerformanceStats)},
		[]string{"Trades", fmt.Sprintf("%d", result.TotalTrades)},
		[]string{"Profit factor", fmt.Sprintf("%.2f", result.ProfitFactor)},
		[]string{"Sharpe ratio", fmt.Sprintf("%.2f", result.SharpeRatio)},
		[]string{"Sortino ratio", fmt.Sprintf("%.2f", result.SortinoRatio)},
		[]string{"Total fees", money(result.TotalFees)},
		[]string{"Skipped signals", fmt.Sprintf("%d", result.SkippedSignals)},
	)

	b.WriteString(t.String())
	b.WriteString("\n")
	writeNotes(&b, result.Notes)

	return b.String()
}

// RenderComparison renders one row per strategy, best strategy in bold.
func RenderComparison(comparison types.Comparison) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Strategy comparison for %s with %s", comparison.Symbol, money(comparison.InitialCapital))))
	b.WriteString("\n")

	rows := make([][]string, 0, len(comparison.Results))
	bestRow := -1

	for i, result := range comparison.Results {
		if result.StrategyID == comparison.BestStrategy {
			bestRow = i
		}

		if result.Skipped() {
			rows = append(rows, []string{result.StrategyName, "skipped", "", "", "", "", ""})

			continue
		}

		rows = append(rows, []string{
			result.StrategyName,
			money(result.FinalValue),
			pct(result.TotalReturnPct),
			pct(result.OutperformancePct),
			pct(result.MaxDrawdownPct),
			winRate(result.PerformanceStats),
			fmt.Sprintf("%d", result.TotalTrades),
		})
	}

	t := newTable("Strategy", "Final value", "Return", "vs Buy & Hold", "Max drawdown", "Win rate", "Trades").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch row {
			case table.HeaderRow:
				return headerStyle
			case bestRow:
				return bestStyle
			default:
				return cellStyle
			}
		})

	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Buy & hold return: %s\n", pct(comparison.BuyHoldReturnPct)))

	if comparison.BestStrategy != "" {
		b.WriteString(fmt.Sprintf("Best strategy: %s\n", comparison.BestStrategy))
	}

	for _, result := range comparison.Results {
		for _, note := range result.Notes {
			b.WriteString(HelpStyle.Render(fmt.Sprintf("%s: %s", result.StrategyID, note)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderSweep renders the capital sensitivity table.
func RenderSweep(rows []types.CalculatorRow) string {
	tableRows := make([][]string, 0, len(rows))

	for _, row := range rows {
		tableRows = append(tableRows, []string{
			money(row.Capital),
			money(row.FinalValue),
			money(row.Profit),
			pct(row.TotalReturnPct),
			pct(row.WinRatePct),
			fmt.Sprintf("%d", row.TotalTrades),
			money(row.TotalFees),
		})
	}

	return newTable("Capital", "Final value", "Profit", "Return", "Win rate", "Trades", "Fees").Rows(tableRows...).String() + "\n"
}

// RenderPairs renders pair analytics, one row per pair.
func RenderPairs(pairs []types.PairAnalytics) string {
	if len(pairs) == 0 {
		return HelpStyle.Render("No pair scored high enough") + "\n"
	}

	rows := make([][]string, 0, len(pairs))

	for _, p := range pairs {
		halfLife := "N/A"
		if p.HalfLife > 0 {
			halfLife = fmt.Sprintf("%.1f", p.HalfLife)
		}

		rows = append(rows, []string{
			p.SymbolA + "/" + p.SymbolB,
			fmt.Sprintf("%.3f", p.PearsonCorrelation),
			fmt.Sprintf("%.4f", p.PValue),
			fmt.Sprintf("%t", p.IsStationaryPair),
			halfLife,
			fmt.Sprintf("%.3f", p.HedgeRatio),
			fmt.Sprintf("%.0f", p.Score),
			string(p.StrategyType),
			string(p.RiskLevel),
		})
	}

	return newTable("Pair", "Correlation", "p-value", "Stationary", "Half-life", "Hedge ratio", "Score", "Strategy", "Risk").Rows(rows...).String() + "\n"
}

// RenderGrowth renders the growth filters, their inputs and the score.
func RenderGrowth(report growth.Report) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%d/100)", report.Rating, report.Score)))
	b.WriteString("\n")

	t := newTable("Filter", "Value", "Passed").Rows(
		[]string{"Revenue growth", optionalPct(report.RevenueGrowthPct), passed(report.Filters.RevenueGrowth)},
		[]string{"EPS growth", optionalPct(report.EPSGrowthPct), passed(report.Filters.EPSGrowth)},
		[]string{"PEG ratio", optionalRatio(report.PEG), passed(report.Filters.PEG)},
		[]string{"Rule of 40", optionalRatio(report.RuleOf40), passed(report.Filters.RuleOf40)},
		[]string{"Free cash flow", optionalRatio(report.FreeCashFlow), passed(report.Filters.FreeCashFlow)},
	)

	b.WriteString(t.String())
	b.WriteString("\n")

	if report.PayoutRatioPct.IsSome() {
		b.WriteString(HelpStyle.Render("payout ratio: " + pct(report.PayoutRatioPct.Unwrap())))
		b.WriteString("\n")
	}

	return b.String()
}

func optionalPct(v optional.Option[float64]) string {
	if v.IsNone() {
		return "N/A"
	}

	return pct(v.Unwrap())
}

func optionalRatio(v optional.Option[float64]) string {
	if v.IsNone() {
		return "N/A"
	}

	return fmt.Sprintf("%.2f", v.Unwrap())
}

func passed(ok bool) string {
	if ok {
		return "yes"
	}

	return "no"
}

func writeNotes(b *strings.Builder, notes []string) {
	for _, note := range notes {
		b.WriteString(HelpStyle.Render("note: " + note))
		b.WriteString("\n")
	}
}
