package indicator

import "gonum.org/v1/gonum/floats"

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := requirePeriod(IndicatorTypeSMA, period); err != nil {
		return 0, err
	}

	if err := requireLength(IndicatorTypeSMA, period, len(values)); err != nil {
		return 0, err
	}

	return floats.Sum(values[len(values)-period:]) / float64(period), nil
}

// SMASeries returns the rolling simple moving average.
func SMASeries(values []float64, period int) []float64 {
	series := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	sum := floats.Sum(values[:period])
	series[period-1] = sum / float64(period)

	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		series[i] = sum / float64(period)
	}

	return series
}
