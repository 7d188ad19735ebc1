// Package indicator computes technical indicators over close prices or bars.
//
// Every function reads only the values it is given, so callers pass the history
// up to and including the current bar and never see future prices. Functions that
// return a single value compute it for the last element; the *Series variants return
// one value per input element with math.NaN() during warm-up.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeVolatility     IndicatorType = "volatility"
	IndicatorTypeZScore         IndicatorType = "zscore"
	IndicatorTypeChannel        IndicatorType = "channel"
)

// IsValid reports whether v is a usable indicator value.
func IsValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func requirePeriod(indicatorType IndicatorType, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be a positive integer, got %d", indicatorType, period)
	}

	return nil
}

func requireLength(indicatorType IndicatorType, required, actual int) error {
	if actual < required {
		return errors.NewInsufficientDataErrorf(required, actual, "", "insufficient data points for %s: required %d, got %d", indicatorType, required, actual)
	}

	return nil
}

func nanSeries(n int) []float64 {
	series := make([]float64, n)
	for i := range series {
		series[i] = math.NaN()
	}

	return series
}
