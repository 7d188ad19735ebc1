package strategy

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/seasonality"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MonthlySeasonal is long during favorable months and in cash otherwise.
//
// It enters within the first EntryWindowDays trading days of a favorable month when
// the price is above its trend SMA, and leaves when a month outside the favorable
// set begins. Unfavorable months are additionally enforced by the risk manager.
type MonthlySeasonal struct {
	params   SeasonalParams
	calendar seasonality.Calendar
}

// NewMonthlySeasonal uses the configured months. When no month is configured the
// calendar is derived from a monthly profile: the best four months are favorable
// and the worst three unfavorable. The profile is taken from the bars before the
// simulated period when they cover every calendar month. Otherwise it falls back
// to the simulated series itself, which means the calendar knows the returns it
// is later traded on.
func NewMonthlySeasonal(params Parameters, ctx BuildContext) (Policy, error) {
	calendar := seasonality.Calendar{
		Favorable:   params.Seasonal.FavorableMonths,
		Unfavorable: params.Seasonal.UnfavorableMonths,
	}

	if len(calendar.Favorable) == 0 && len(calendar.Unfavorable) == 0 {
		calendar = trainingProfile(ctx).
			DeriveCalendar(seasonality.DefaultFavorableCount, seasonality.DefaultUnfavorableCount)
	}

	return &MonthlySeasonal{
		params:   params.Seasonal,
		calendar: calendar,
	}, nil
}

func trainingProfile(ctx BuildContext) seasonality.Profile {
	if prior := seasonality.NewProfile(ctx.Prior); len(prior.Months) == 12 {
		return prior
	}

	return seasonality.NewProfile(ctx.Series.Bars)
}

func (m *MonthlySeasonal) ID() StrategyID {
	return StrategyMonthlySeasonal
}

func (m *MonthlySeasonal) Name() string {
	return "Monthly Seasonal"
}

func (m *MonthlySeasonal) WarmUp() int {
	return m.params.TrendPeriod
}

// Calendar returns the favorable and unfavorable months in use.
func (m *MonthlySeasonal) Calendar() seasonality.Calendar {
	return m.calendar
}

func (m *MonthlySeasonal) InUnfavorableRegime(date time.Time) bool {
	return m.calendar.IsUnfavorable(date.Month())
}

func (m *MonthlySeasonal) Signal(history []types.PriceBar, state types.PositionState) types.Decision {
	bar := history[len(history)-1]
	month := bar.Date.Month()

	if state.IsLong() {
		if m.calendar.IsUnfavorable(month) {
			return types.NewDecision(types.SignalExit, fmt.Sprintf("%s unfavorable month", month))
		}

		if !m.calendar.IsFavorable(month) {
			return types.NewDecision(types.SignalExit, "Favorable month ended")
		}

		return types.Hold(fmt.Sprintf("%s favorable month", month))
	}

	if !state.IsFlat() || !m.calendar.IsFavorable(month) {
		return types.Hold("Outside favorable months")
	}

	if tradingDayOfMonth(history) > m.params.EntryWindowDays {
		return types.Hold("Entry window closed")
	}

	trend, err := indicator.SMA(closes(history), m.params.TrendPeriod)
	if err != nil {
		return types.Hold(types.ReasonWarmUp)
	}

	if bar.Close <= trend {
		return types.Hold("Price below trend")
	}

	return types.NewDecision(types.SignalEnterLong, fmt.Sprintf("%s favorable month", month))
}

// tradingDayOfMonth counts the bars of the last bar's month up to and including it.
func tradingDayOfMonth(history []types.PriceBar) int {
	last := history[len(history)-1].Date
	day := 0

	for i := len(history) - 1; i >= 0; i-- {
		d := history[i].Date
		if d.Year() != last.Year() || d.Month() != last.Month() {
			break
		}

		day++
	}

	return day
}
