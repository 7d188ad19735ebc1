// Package pair measures how two instruments move together: correlation,
// Engle-Granger cointegration, hedge ratio and mean-reversion half-life.
package pair

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	// StationaryPValue is the significance level below which a pair is cointegrated.
	StationaryPValue = 0.05
	// MinObservations is the smallest number of common dates a pair is analyzed on.
	MinObservations = 30
	// SuggestionScore is the lowest score Suggest returns.
	SuggestionScore = 30
)

// Align returns the closes of a and b on the dates both series have.
func Align(a, b types.PriceSeries) (closesA, closesB []float64) {
	byDate := make(map[int64]float64, len(b.Bars))
	for _, bar := range b.Bars {
		byDate[bar.Date.Unix()] = bar.Close
	}

	for _, bar := range a.Bars {
		if closeB, ok := byDate[bar.Date.Unix()]; ok {
			closesA = append(closesA, bar.Close)
			closesB = append(closesB, closeB)
		}
	}

	return closesA, closesB
}

// Compute analyzes two series on their common dates.
func Compute(a, b types.PriceSeries) (types.PairAnalytics, error) {
	closesA, closesB := Align(a, b)
	if len(closesA) < MinObservations {
		return types.PairAnalytics{}, errors.NewInsufficientDataErrorf(MinObservations, len(closesA), a.Symbol+"/"+b.Symbol,
			"pair %s/%s has %d common dates, needs %d", a.Symbol, b.Symbol, len(closesA), MinObservations)
	}

	result := types.PairAnalytics{
		SymbolA:      a.Symbol,
		SymbolB:      b.Symbol,
		Observations: len(closesA),
	}

	result.PearsonCorrelation = stat.Correlation(closesA, closesB, nil)
	if math.IsNaN(result.PearsonCorrelation) {
		result.PearsonCorrelation = 0
	}

	alpha, beta := HedgeRatio(closesA, closesB)
	result.HedgeRatio = beta
	result.OptimalRatio = meanRatio(closesA, closesB)

	residuals := Residuals(closesA, closesB, alpha, beta)
	tstat, _ := ADFStatistic(residuals, MaxLag(len(residuals)))

	result.PValue = MacKinnonPValue(tstat)
	result.CointegrationScore = math.Max(0, math.Min(1, 1-result.PValue))
	result.IsStationaryPair = result.PValue < StationaryPValue

	if result.IsStationaryPair {
		result.HalfLife = HalfLife(residuals)
	}

	result.Score = Score(result.PearsonCorrelation, result.CointegrationScore, result.IsStationaryPair, result.HalfLife)
	result.StrategyType = Classify(result.PearsonCorrelation, result.IsStationaryPair)
	result.RiskLevel = Risk(result.Score)

	return result, nil
}

func meanRatio(a, b []float64) float64 {
	ratios := make([]float64, 0, len(a))

	for i := range a {
		if b[i] != 0 {
			ratios = append(ratios, a[i]/b[i])
		}
	}

	if len(ratios) == 0 {
		return 0
	}

	return stat.Mean(ratios, nil)
}

// Score ranks a pair from 0 to 100: up to 30 for correlation strength, 30 for
// cointegration, 20 for a stationary spread and 20 for a 5 to 60 bar half-life.
func Score(correlation, cointegration float64, stationary bool, halfLife float64) float64 {
	score := 0.0

	switch abs := math.Abs(correlation); {
	case abs > 0.8:
		score += 30
	case abs > 0.6:
		score += 20
	case abs > 0.4:
		score += 10
	}

	score += cointegration * 30

	if stationary {
		score += 20
	}

	switch {
	case halfLife >= 5 && halfLife <= 60:
		score += 20
	case halfLife > 0 && halfLife <= 90:
		score += 10
	}

	return math.Round(score*100) / 100
}

// Classify labels the trading approach that suits the pair.
func Classify(correlation float64, stationary bool) types.PairStrategyType {
	abs := math.Abs(correlation)

	switch {
	case stationary && abs > 0.6:
		return types.PairStrategyMeanReversion
	case abs > 0.7:
		return types.PairStrategyCorrelation
	case abs >= 0.3 && abs <= 0.6:
		return types.PairStrategyRatio
	default:
		return types.PairStrategyDiversification
	}
}

func Risk(score float64) types.RiskLevel {
	switch {
	case score >= 70:
		return types.RiskLevelLow
	case score >= 50:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelHigh
	}
}
