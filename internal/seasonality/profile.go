// Package seasonality derives calendar-month statistics from a price series.
package seasonality

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const (
	DefaultFavorableCount   = 4
	DefaultUnfavorableCount = 3
)

// MonthStats summarizes the daily returns observed in one calendar month.
type MonthStats struct {
	Month time.Month `json:"month" yaml:"month"`
	// AvgReturnPct is the mean daily return in percent.
	AvgReturnPct float64 `json:"avg_return_pct" yaml:"avg_return_pct"`
	// WinRatePct is the share of up days.
	WinRatePct  float64 `json:"win_rate_pct" yaml:"win_rate_pct"`
	StdDevPct   float64 `json:"std_dev_pct" yaml:"std_dev_pct"`
	Occurrences int     `json:"occurrences" yaml:"occurrences"`
}

// Profile holds the statistics of every month that has at least one return,
// sorted by average return, best first.
type Profile struct {
	Months []MonthStats `json:"months" yaml:"months"`
}

// NewProfile groups the daily returns of bars by the month of the later bar.
func NewProfile(bars []types.PriceBar) Profile {
	returnsByMonth := make(map[time.Month][]float64, 12)

	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}

		month := bars[i].Date.Month()
		returnsByMonth[month] = append(returnsByMonth[month], (bars[i].Close/prev-1)*100)
	}

	months := make([]MonthStats, 0, len(returnsByMonth))

	for month := time.January; month <= time.December; month++ {
		returns, ok := returnsByMonth[month]
		if !ok || len(returns) == 0 {
			continue
		}

		wins := 0

		for _, r := range returns {
			if r > 0 {
				wins++
			}
		}

		stdDev := 0.0
		if len(returns) > 1 {
			stdDev = stat.StdDev(returns, nil)
		}

		months = append(months, MonthStats{
			Month:        month,
			AvgReturnPct: stat.Mean(returns, nil),
			WinRatePct:   float64(wins) / float64(len(returns)) * 100,
			StdDevPct:    stdDev,
			Occurrences:  len(returns),
		})
	}

	slices.SortStableFunc(months, func(a, b MonthStats) int {
		switch {
		case a.AvgReturnPct > b.AvgReturnPct:
			return -1
		case a.AvgReturnPct < b.AvgReturnPct:
			return 1
		default:
			return 0
		}
	})

	return Profile{Months: months}
}

// BestMonths returns the n months with the highest average return.
func (p Profile) BestMonths(n int) []time.Month {
	n = min(n, len(p.Months))
	best := make([]time.Month, 0, n)

	for _, m := range p.Months[:n] {
		best = append(best, m.Month)
	}

	return best
}

// WorstMonths returns the n months with the lowest average return, worst first.
func (p Profile) WorstMonths(n int) []time.Month {
	n = min(n, len(p.Months))
	worst := make([]time.Month, 0, n)

	for i := len(p.Months) - 1; i >= len(p.Months)-n; i-- {
		worst = append(worst, p.Months[i].Month)
	}

	return worst
}

// Stats returns the statistics for one month.
func (p Profile) Stats(month time.Month) (MonthStats, bool) {
	for _, m := range p.Months {
		if m.Month == month {
			return m, true
		}
	}

	return MonthStats{}, false
}

// Calendar is a pair of favorable and unfavorable month sets.
type Calendar struct {
	Favorable   []time.Month `json:"favorable" yaml:"favorable"`
	Unfavorable []time.Month `json:"unfavorable" yaml:"unfavorable"`
}

// DeriveCalendar takes the best and worst months of the profile. A month is never in both sets.
func (p Profile) DeriveCalendar(favorableCount, unfavorableCount int) Calendar {
	favorable := p.BestMonths(favorableCount)
	unfavorable := make([]time.Month, 0, unfavorableCount)

	for _, m := range p.WorstMonths(unfavorableCount) {
		if !slices.Contains(favorable, m) {
			unfavorable = append(unfavorable, m)
		}
	}

	return Calendar{Favorable: favorable, Unfavorable: unfavorable}
}

// IsFavorable reports whether month is in the favorable set.
func (c Calendar) IsFavorable(month time.Month) bool {
	return slices.Contains(c.Favorable, month)
}

// IsUnfavorable reports whether month is in the unfavorable set.
func (c Calendar) IsUnfavorable(month time.Month) bool {
	return slices.Contains(c.Unfavorable, month)
}
