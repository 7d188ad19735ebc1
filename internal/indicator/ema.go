package indicator

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EMASeries returns the exponential moving average seeded with the SMA of the
// first period values. NaN inputs before the seed are skipped.
func EMASeries(values []float64, period int) []float64 {
	series := nanSeries(len(values))
	if period <= 0 {
		return series
	}

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}

	if len(values)-start < period {
		return series
	}

	multiplier := 2.0 / float64(period+1)
	seedIndex := start + period - 1
	series[seedIndex] = floats.Sum(values[start:seedIndex+1]) / float64(period)

	for i := seedIndex + 1; i < len(values); i++ {
		series[i] = (values[i]-series[i-1])*multiplier + series[i-1]
	}

	return series
}

// EMA returns the exponential moving average at the last value.
func EMA(values []float64, period int) (float64, error) {
	if err := requirePeriod(IndicatorTypeEMA, period); err != nil {
		return 0, err
	}

	if err := requireLength(IndicatorTypeEMA, period, len(values)); err != nil {
		return 0, err
	}

	series := EMASeries(values, period)

	return series[len(series)-1], nil
}
