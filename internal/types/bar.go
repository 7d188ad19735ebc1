package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// PriceBar is one OHLCV period of a price series.
type PriceBar struct {
	Date   time.Time `csv:"date" json:"date" yaml:"date"`
	Open   float64   `csv:"open" json:"open" yaml:"open"`
	High   float64   `csv:"high" json:"high" yaml:"high"`
	Low    float64   `csv:"low" json:"low" yaml:"low"`
	Close  float64   `csv:"close" json:"close" yaml:"close"`
	Volume float64   `csv:"volume" json:"volume" yaml:"volume"`
}

// PriceSeries is an ascending, duplicate-free list of bars for one symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol" yaml:"symbol"`
	Bars   []PriceBar `json:"bars" yaml:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close prices of the series.
func (s PriceSeries) Closes() []float64 {
	return Closes(s.Bars)
}

// Closes extracts the close price of every bar.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}

// Validate checks that the series can be simulated. Gaps are tolerated; NaN,
// zero or negative closes, duplicate dates and out-of-order bars are rejected.
func (s PriceSeries) Validate() error {
	for i, bar := range s.Bars {
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			return errors.NewMalformedPriceSeriesError(s.Symbol, i, bar.Date, "close is not a number")
		}

		if bar.Close <= 0 {
			return errors.NewMalformedPriceSeriesError(s.Symbol, i, bar.Date, "close must be positive")
		}

		if math.IsNaN(bar.High) || math.IsNaN(bar.Low) || math.IsNaN(bar.Open) {
			return errors.NewMalformedPriceSeriesError(s.Symbol, i, bar.Date, "open/high/low is not a number")
		}

		if i == 0 {
			continue
		}

		prev := s.Bars[i-1].Date
		if bar.Date.Equal(prev) {
			return errors.NewMalformedPriceSeriesError(s.Symbol, i, bar.Date, "duplicate bar date")
		}

		if bar.Date.Before(prev) {
			return errors.NewMalformedPriceSeriesError(s.Symbol, i, bar.Date, "bars are out of order")
		}
	}

	return nil
}

// Years returns the calendar span of the series in years.
func (s PriceSeries) Years() float64 {
	if len(s.Bars) < 2 {
		return 0
	}

	span := s.Bars[len(s.Bars)-1].Date.Sub(s.Bars[0].Date)

	return span.Hours() / 24 / 365.25
}
