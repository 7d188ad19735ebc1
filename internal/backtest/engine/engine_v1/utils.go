package engine

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// filterSeries keeps the bars dated within [start, end]. Unset bounds are open.
func filterSeries(series types.PriceSeries, start optional.Option[time.Time], end optional.Option[time.Time]) types.PriceSeries {
	if start.IsNone() && end.IsNone() {
		return series
	}

	bars := make([]types.PriceBar, 0, len(series.Bars))

	for _, bar := range series.Bars {
		if start.IsSome() && bar.Date.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Date.After(end.Unwrap()) {
			continue
		}

		bars = append(bars, bar)
	}

	return types.PriceSeries{Symbol: series.Symbol, Bars: bars}
}

// ScopeBuildContext restricts buildCtx to the period of config, so policies are
// built from the bars the engine walks and the earlier bars are kept as Prior.
func ScopeBuildContext(config BacktestEngineV1Config, buildCtx strategy.BuildContext) strategy.BuildContext {
	if config.StartTime.IsNone() && config.EndTime.IsNone() {
		return buildCtx
	}

	return buildCtx.Restrict(filterSeries(buildCtx.Series, config.StartTime, config.EndTime))
}
