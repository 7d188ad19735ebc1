package indicator

import "gonum.org/v1/gonum/floats"

// Channel is the highest and lowest value over a lookback.
type Channel struct {
	High float64
	Low  float64
}

// PriorChannel returns the range of the period values before the last one,
// so that the last value can be compared against a breakout level.
func PriorChannel(values []float64, period int) (Channel, error) {
	if err := requirePeriod(IndicatorTypeChannel, period); err != nil {
		return Channel{}, err
	}

	if err := requireLength(IndicatorTypeChannel, period+1, len(values)); err != nil {
		return Channel{}, err
	}

	window := values[len(values)-period-1 : len(values)-1]

	return Channel{
		High: floats.Max(window),
		Low:  floats.Min(window),
	}, nil
}
