package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfitFactorCap is reported as the profit factor when there are winning trades and no losing ones.
const ProfitFactorCap = 999.0

// EquityPoint is the mark-to-market value of the portfolio at the close of one bar.
type EquityPoint struct {
	Date           time.Time `json:"date" yaml:"date"`
	PortfolioValue float64   `json:"portfolio_value" yaml:"portfolio_value"`
}

// PerformanceStats are the summary statistics derived from a ledger and an equity curve.
type PerformanceStats struct {
	FinalValue      float64 `json:"final_value" yaml:"final_value"`
	TotalReturnPct  float64 `json:"total_return_pct" yaml:"total_return_pct"`
	AnnualReturnPct float64 `json:"annual_return_pct" yaml:"annual_return_pct"`
	// MaxDrawdownPct is zero or negative.
	MaxDrawdownPct float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	// WinRatePct is zero when ClosedTrades is zero and should be displayed as N/A.
	WinRatePct      float64 `json:"win_rate_pct" yaml:"win_rate_pct"`
	TotalTrades     int     `json:"total_trades" yaml:"total_trades"`
	ClosedTrades    int     `json:"closed_trades" yaml:"closed_trades"`
	WinningTrades   int     `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades    int     `json:"losing_trades" yaml:"losing_trades"`
	AvgWin          float64 `json:"avg_win" yaml:"avg_win"`
	AvgLoss         float64 `json:"avg_loss" yaml:"avg_loss"`
	GrossProfit     float64 `json:"gross_profit" yaml:"gross_profit"`
	GrossLoss       float64 `json:"gross_loss" yaml:"gross_loss"`
	ProfitFactor    float64 `json:"profit_factor" yaml:"profit_factor"`
	SharpeRatio     float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio" yaml:"sortino_ratio"`
	RiskRewardRatio float64 `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	TotalFees       float64 `json:"total_fees" yaml:"total_fees"`
	// ExposurePct is the share of bars spent holding a position.
	ExposurePct float64 `json:"exposure_pct" yaml:"exposure_pct"`
}

// HasClosedTrades reports whether trade-based ratios are meaningful.
func (s PerformanceStats) HasClosedTrades() bool {
	return s.ClosedTrades > 0
}

// BacktestResult is created once per (symbol, strategy, capital, period) and never mutated.
type BacktestResult struct {
	RunID            string    `json:"run_id" yaml:"run_id"`
	Symbol           string    `json:"symbol" yaml:"symbol"`
	StrategyID       string    `json:"strategy_id" yaml:"strategy_id"`
	StrategyName     string    `json:"strategy_name" yaml:"strategy_name"`
	InitialCapital   float64   `json:"initial_capital" yaml:"initial_capital"`
	StartDate        time.Time `json:"start_date" yaml:"start_date"`
	EndDate          time.Time `json:"end_date" yaml:"end_date"`
	PerformanceStats `yaml:",inline"`
	// OutperformancePct is the total return minus the buy-and-hold return, set by the comparator.
	OutperformancePct float64       `json:"outperformance_pct" yaml:"outperformance_pct"`
	SkippedSignals    int           `json:"skipped_signals" yaml:"skipped_signals"`
	Notes             []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	TradeLedger       []Trade       `json:"trade_ledger" yaml:"-"`
	EquityCurve       []EquityPoint `json:"equity_curve" yaml:"-"`
	// TradesFilePath is set when the ledger was exported to parquet.
	TradesFilePath string `json:"trades_file_path,omitempty" yaml:"trades_file_path,omitempty"`
	// EquityFilePath is set when the equity curve was exported to parquet.
	EquityFilePath string `json:"equity_file_path,omitempty" yaml:"equity_file_path,omitempty"`
}

// Skipped reports whether the run produced no simulation because of a reportable condition.
func (r BacktestResult) Skipped() bool {
	return len(r.EquityCurve) == 0 && len(r.Notes) > 0
}

// CalculatorRow is one line of a capital sensitivity sweep.
type CalculatorRow struct {
	Capital        float64 `json:"capital" yaml:"capital"`
	FinalValue     float64 `json:"final_value" yaml:"final_value"`
	Profit         float64 `json:"profit" yaml:"profit"`
	TotalReturnPct float64 `json:"total_return_pct" yaml:"total_return_pct"`
	WinRatePct     float64 `json:"win_rate_pct" yaml:"win_rate_pct"`
	TotalTrades    int     `json:"total_trades" yaml:"total_trades"`
	TotalFees      float64 `json:"total_fees" yaml:"total_fees"`
}

// Comparison is the outcome of running every configured strategy on one series.
type Comparison struct {
	Symbol           string           `json:"symbol" yaml:"symbol"`
	InitialCapital   float64          `json:"initial_capital" yaml:"initial_capital"`
	Results          []BacktestResult `json:"results" yaml:"results"`
	BestStrategy     string           `json:"best_strategy" yaml:"best_strategy"`
	BuyHoldReturnPct float64          `json:"buy_hold_return_pct" yaml:"buy_hold_return_pct"`
}

// Best returns the result designated as best strategy.
func (c Comparison) Best() (BacktestResult, bool) {
	for _, result := range c.Results {
		if result.StrategyID == c.BestStrategy {
			return result, true
		}
	}

	return BacktestResult{}, false
}

// WriteResultStats writes result summaries to a YAML file. Ledgers and equity curves
// are not included; they are exported separately.
func WriteResultStats(path string, results []BacktestResult) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest results to file: %w", err)
	}

	return nil
}

// ReadResultStats reads summaries written by WriteResultStats.
func ReadResultStats(path string) ([]BacktestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest results: %w", err)
	}

	var results []BacktestResult
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest results: %w", err)
	}

	return results, nil
}
