package indicator

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MACDValue is one MACD reading.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACDSeries returns the MACD line and its signal line.
func MACDSeries(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine []float64, signalLine []float64) {
	fast := EMASeries(values, fastPeriod)
	slow := EMASeries(values, slowPeriod)

	macdLine = nanSeries(len(values))
	for i := range values {
		if IsValid(fast[i]) && IsValid(slow[i]) {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	signalLine = EMASeries(macdLine, signalPeriod)

	return macdLine, signalLine
}

// MACDWarmUp is the number of values needed before the signal line exists.
func MACDWarmUp(slowPeriod, signalPeriod int) int {
	return slowPeriod + signalPeriod - 1
}

// MACD returns the latest MACD reading.
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (MACDValue, error) {
	for _, period := range []int{fastPeriod, slowPeriod, signalPeriod} {
		if err := requirePeriod(IndicatorTypeMACD, period); err != nil {
			return MACDValue{}, err
		}
	}

	if fastPeriod >= slowPeriod {
		return MACDValue{}, errors.Newf(errors.ErrCodeInvalidPeriod, "macd fast period %d must be shorter than slow period %d", fastPeriod, slowPeriod)
	}

	if err := requireLength(IndicatorTypeMACD, MACDWarmUp(slowPeriod, signalPeriod), len(values)); err != nil {
		return MACDValue{}, err
	}

	macdLine, signalLine := MACDSeries(values, fastPeriod, slowPeriod, signalPeriod)
	last := len(values) - 1

	return MACDValue{
		MACD:      macdLine[last],
		Signal:    signalLine[last],
		Histogram: macdLine[last] - signalLine[last],
	}, nil
}
