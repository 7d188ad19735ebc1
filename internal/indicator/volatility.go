package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Returns converts prices to simple period returns. The result is one shorter than values.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns[i-1] = values[i]/values[i-1] - 1
	}

	return returns
}

// AnnualizedVolatility is the sample standard deviation of the last window returns,
// annualized and expressed in percent.
func AnnualizedVolatility(values []float64, window int, periodsPerYear float64) (float64, error) {
	if err := requirePeriod(IndicatorTypeVolatility, window); err != nil {
		return 0, err
	}

	if err := requireLength(IndicatorTypeVolatility, window+1, len(values)); err != nil {
		return 0, err
	}

	returns := Returns(values[len(values)-window-1:])

	return stat.StdDev(returns, nil) * math.Sqrt(periodsPerYear) * 100, nil
}

// ZScore is the distance of the last value from the mean of the last window values,
// in sample standard deviations. A flat window yields zero.
func ZScore(values []float64, window int) (float64, error) {
	if err := requirePeriod(IndicatorTypeZScore, window); err != nil {
		return 0, err
	}

	if err := requireLength(IndicatorTypeZScore, window, len(values)); err != nil {
		return 0, err
	}

	mean, stdDev := stat.MeanStdDev(values[len(values)-window:], nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0, nil
	}

	return (values[len(values)-1] - mean) / stdDev, nil
}
