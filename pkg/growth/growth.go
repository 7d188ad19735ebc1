// Package growth scores a stock against five growth filters and computes dividend
// payout ratios. The functions are pure and independent of the backtest engine.
//
// Inputs that are unknown are passed as optional.None and make the dependent filter fail.
package growth

import (
	"github.com/moznion/go-optional"
)

const (
	MinRevenueGrowthPct = 15.0
	MaxPEG              = 1.5
	MinRuleOf40         = 40.0
	// MaxPayoutRatioPct caps payout ratios computed from depressed or one-off earnings.
	MaxPayoutRatioPct = 200.0
	pointsPerFilter   = 20
)

type Rating string

const (
	RatingStrong   Rating = "Strong Growth"
	RatingModerate Rating = "Moderate Growth"
	RatingWeak     Rating = "Weak Growth"
	RatingNone     Rating = "Not Growth Stock"
)

// Fundamentals are the raw inputs of the growth filters.
type Fundamentals struct {
	// Revenues are annual revenues, oldest first.
	Revenues []float64 `json:"revenues" yaml:"revenues"`
	// TrailingEPS and ForwardEPS are per-share earnings.
	TrailingEPS optional.Option[float64] `json:"trailing_eps" yaml:"trailing_eps"`
	ForwardEPS  optional.Option[float64] `json:"forward_eps" yaml:"forward_eps"`
	// EarningsGrowthPct is used when the EPS pair cannot give a growth rate.
	EarningsGrowthPct optional.Option[float64] `json:"earnings_growth_pct" yaml:"earnings_growth_pct"`
	PERatio           optional.Option[float64] `json:"pe_ratio" yaml:"pe_ratio"`
	ProfitMarginPct   optional.Option[float64] `json:"profit_margin_pct" yaml:"profit_margin_pct"`
	// FreeCashFlows are annual operating cash flow minus capital expenditure, oldest first.
	FreeCashFlows []float64 `json:"free_cash_flows" yaml:"free_cash_flows"`
	// DividendPerShare, AnnualEPS and IsFund feed the payout ratio.
	DividendPerShare float64                  `json:"dividend_per_share" yaml:"dividend_per_share"`
	AnnualEPS        optional.Option[float64] `json:"annual_eps" yaml:"annual_eps"`
	IsFund           bool                     `json:"is_fund" yaml:"is_fund"`
}

type Filters struct {
	RevenueGrowth bool `json:"revenue_growth" yaml:"revenue_growth"`
	EPSGrowth     bool `json:"eps_growth" yaml:"eps_growth"`
	PEG           bool `json:"peg_ratio" yaml:"peg_ratio"`
	RuleOf40      bool `json:"rule_of_40" yaml:"rule_of_40"`
	FreeCashFlow  bool `json:"free_cash_flow" yaml:"free_cash_flow"`
}

// Passed counts the filters that passed.
func (f Filters) Passed() int {
	count := 0

	for _, passed := range []bool{f.RevenueGrowth, f.EPSGrowth, f.PEG, f.RuleOf40, f.FreeCashFlow} {
		if passed {
			count++
		}
	}

	return count
}

type Report struct {
	RevenueGrowthPct optional.Option[float64] `json:"revenue_growth_pct" yaml:"revenue_growth_pct"`
	EPSGrowthPct     optional.Option[float64] `json:"eps_growth_pct" yaml:"eps_growth_pct"`
	PEG              optional.Option[float64] `json:"peg_ratio" yaml:"peg_ratio"`
	RuleOf40         optional.Option[float64] `json:"rule_of_40" yaml:"rule_of_40"`
	FreeCashFlow     optional.Option[float64] `json:"free_cash_flow" yaml:"free_cash_flow"`
	PayoutRatioPct   optional.Option[float64] `json:"payout_ratio_pct" yaml:"payout_ratio_pct"`
	Filters          Filters                  `json:"filters" yaml:"filters"`
	Score            int                      `json:"score" yaml:"score"`
	Rating           Rating                   `json:"rating" yaml:"rating"`
}

// Analyze runs every filter, scores the result and computes the payout ratio.
func Analyze(f Fundamentals) Report {
	report := Report{
		RevenueGrowthPct: RevenueGrowth(f.Revenues),
		EPSGrowthPct:     EPSGrowth(f.TrailingEPS, f.ForwardEPS, f.EarningsGrowthPct),
		PEG:              optional.None[float64](),
		RuleOf40:         optional.None[float64](),
		FreeCashFlow:     optional.None[float64](),
		PayoutRatioPct:   PayoutRatio(f.DividendPerShare, CappedPayoutEPS(f.AnnualEPS, f.TrailingEPS), f.IsFund),
		Filters:          Filters{},
		Score:            0,
		Rating:           RatingNone,
	}

	report.PEG = PEG(f.PERatio, report.EPSGrowthPct)
	report.RuleOf40 = RuleOf40(report.RevenueGrowthPct, f.ProfitMarginPct)

	if len(f.FreeCashFlows) > 0 {
		report.FreeCashFlow = optional.Some(f.FreeCashFlows[len(f.FreeCashFlows)-1])
	}

	report.Filters = Filters{
		RevenueGrowth: passes(report.RevenueGrowthPct, func(v float64) bool { return v > MinRevenueGrowthPct }),
		EPSGrowth:     passes(report.EPSGrowthPct, func(v float64) bool { return v > 0 }),
		PEG:           passes(report.PEG, func(v float64) bool { return v < MaxPEG }),
		RuleOf40:      passes(report.RuleOf40, func(v float64) bool { return v > MinRuleOf40 }),
		FreeCashFlow:  FreeCashFlowPasses(f.FreeCashFlows),
	}
	report.Score = Score(report.Filters)
	report.Rating = RatingFor(report.Score)

	return report
}

func passes(value optional.Option[float64], predicate func(float64) bool) bool {
	if value.IsNone() {
		return false
	}

	return predicate(value.Unwrap())
}

// RevenueGrowth is the growth of the last annual revenue over the previous one, in percent.
func RevenueGrowth(revenues []float64) optional.Option[float64] {
	if len(revenues) < 2 || revenues[len(revenues)-2] == 0 {
		return optional.None[float64]()
	}

	recent := revenues[len(revenues)-1]
	previous := revenues[len(revenues)-2]

	return optional.Some((recent - previous) / previous * 100)
}

// EPSGrowth prefers forward over trailing EPS and falls back to the reported growth rate.
func EPSGrowth(trailing, forward, reportedPct optional.Option[float64]) optional.Option[float64] {
	if trailing.IsSome() && forward.IsSome() && trailing.Unwrap() > 0 {
		return optional.Some((forward.Unwrap() - trailing.Unwrap()) / trailing.Unwrap() * 100)
	}

	return reportedPct
}

// PEG is the price-earnings ratio over the EPS growth in percent. It is undefined for
// non-positive growth.
func PEG(pe, epsGrowthPct optional.Option[float64]) optional.Option[float64] {
	if pe.IsNone() || epsGrowthPct.IsNone() || pe.Unwrap() == 0 || epsGrowthPct.Unwrap() <= 0 {
		return optional.None[float64]()
	}

	return optional.Some(pe.Unwrap() / epsGrowthPct.Unwrap())
}

// RuleOf40 is revenue growth plus profit margin, both in percent.
func RuleOf40(revenueGrowthPct, profitMarginPct optional.Option[float64]) optional.Option[float64] {
	if revenueGrowthPct.IsNone() || profitMarginPct.IsNone() {
		return optional.None[float64]()
	}

	return optional.Some(revenueGrowthPct.Unwrap() + profitMarginPct.Unwrap())
}

// FreeCashFlowPasses reports whether the latest free cash flow is positive or the last
// three years are rising.
func FreeCashFlowPasses(flows []float64) bool {
	if len(flows) == 0 {
		return false
	}

	latest := flows[len(flows)-1]
	if latest > 0 {
		return true
	}

	return len(flows) >= 3 && latest > flows[len(flows)-3]
}

func Score(filters Filters) int {
	return filters.Passed() * pointsPerFilter
}

func RatingFor(score int) Rating {
	switch {
	case score >= 80:
		return RatingStrong
	case score >= 60:
		return RatingModerate
	case score >= 40:
		return RatingWeak
	default:
		return RatingNone
	}
}

// CappedPayoutEPS picks the EPS a payout ratio is computed against: the annual EPS of
// the dividend year when known and positive, otherwise the trailing EPS.
// It is None when neither is positive.
func CappedPayoutEPS(annual, trailing optional.Option[float64]) optional.Option[float64] {
	if annual.IsSome() && annual.Unwrap() > 0 {
		return annual
	}

	if trailing.IsSome() && trailing.Unwrap() > 0 {
		return trailing
	}

	return optional.None[float64]()
}

// PayoutRatio is dividends per share over EPS in percent, capped at MaxPayoutRatioPct.
// It is None for funds and when either input is not positive.
func PayoutRatio(dividendPerShare float64, eps optional.Option[float64], isFund bool) optional.Option[float64] {
	if isFund || dividendPerShare <= 0 || eps.IsNone() || eps.Unwrap() <= 0 {
		return optional.None[float64]()
	}

	return optional.Some(min(dividendPerShare/eps.Unwrap()*100, MaxPayoutRatioPct))
}
