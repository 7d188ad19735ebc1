package indicator

import (
	"gonum.org/v1/gonum/stat"
)

// Bands are the Bollinger Bands of the last value.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands uses the population standard deviation of the last period values.
func BollingerBands(values []float64, period int, stdDevMultiplier float64) (Bands, error) {
	if err := requirePeriod(IndicatorTypeBollingerBands, period); err != nil {
		return Bands{}, err
	}

	if err := requireLength(IndicatorTypeBollingerBands, period, len(values)); err != nil {
		return Bands{}, err
	}

	middle, stdDev := stat.PopMeanStdDev(values[len(values)-period:], nil)

	return Bands{
		Upper:  middle + stdDevMultiplier*stdDev,
		Middle: middle,
		Lower:  middle - stdDevMultiplier*stdDev,
	}, nil
}
