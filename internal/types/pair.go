package types

type PairStrategyType string

const (
	PairStrategyMeanReversion   PairStrategyType = "MeanReversion"
	PairStrategyCorrelation     PairStrategyType = "Correlation"
	PairStrategyRatio           PairStrategyType = "Ratio"
	PairStrategyDiversification PairStrategyType = "Diversification"
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// PairAnalytics describes the statistical relationship of two instruments.
type PairAnalytics struct {
	SymbolA            string  `json:"symbol_a" yaml:"symbol_a"`
	SymbolB            string  `json:"symbol_b" yaml:"symbol_b"`
	PearsonCorrelation float64 `json:"pearson_correlation" yaml:"pearson_correlation"`
	// CointegrationScore is 1 minus the Engle-Granger p-value.
	CointegrationScore float64 `json:"cointegration_score" yaml:"cointegration_score"`
	PValue             float64 `json:"p_value" yaml:"p_value"`
	IsStationaryPair   bool    `json:"is_stationary_pair" yaml:"is_stationary_pair"`
	// HalfLife is the mean-reversion half-life in bars, zero when the spread does not revert.
	HalfLife     float64 `json:"half_life" yaml:"half_life"`
	HedgeRatio   float64 `json:"hedge_ratio" yaml:"hedge_ratio"`
	OptimalRatio float64 `json:"optimal_ratio" yaml:"optimal_ratio"`
	// Score ranks pairs from 0 to 100.
	Score        float64          `json:"score" yaml:"score"`
	StrategyType PairStrategyType `json:"strategy_type" yaml:"strategy_type"`
	RiskLevel    RiskLevel        `json:"risk_level" yaml:"risk_level"`
	Observations int              `json:"observations" yaml:"observations"`
}
