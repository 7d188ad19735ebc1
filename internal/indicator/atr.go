package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TrueRange of bar i. The first bar has no previous close and uses high-low.
func TrueRange(bars []types.PriceBar, i int) float64 {
	bar := bars[i]
	if i == 0 {
		return bar.High - bar.Low
	}

	prevClose := bars[i-1].Close

	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// ATR returns the average true range of the last bar using Wilder's smoothing.
// It needs period+1 bars.
func ATR(bars []types.PriceBar, period int) (float64, error) {
	if err := requirePeriod(IndicatorTypeATR, period); err != nil {
		return 0, err
	}

	if err := requireLength(IndicatorTypeATR, period+1, len(bars)); err != nil {
		return 0, err
	}

	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += TrueRange(bars, i)
	}

	atr /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + TrueRange(bars, i)) / float64(period)
	}

	return atr, nil
}
