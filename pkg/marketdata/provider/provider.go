package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	ProviderYahoo   ProviderType = "yahoo"
	ProviderCSV     ProviderType = "csv"
	ProviderDuckDB  ProviderType = "duckdb"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Provider serves daily price series. Implementations return the bars dated within
// [start, end] in ascending order, or a SymbolNotFound error when there are none.
type Provider interface {
	// GetPriceSeries returns the daily bars of symbol between start and end inclusive.
	// The context can be used to cancel a remote request.
	GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// config is the API key for polygon and the data directory for csv and duckdb.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderYahoo:
		return NewYahooClient(""), nil
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	case ProviderCSV:
		dir, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("csv provider requires a data directory string config")
		}

		return NewCSVProvider(dir), nil
	case ProviderDuckDB:
		dir, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("duckdb provider requires a data directory string config")
		}

		return NewDuckDBProvider(dir), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// newSeries trims bars to [start, end]. Daily bars are normalized to midnight UTC.
// Bars must already be ascending with one bar per day: a repeated or earlier date
// is reported as a MalformedPriceSeries error rather than repaired.
func newSeries(symbol string, bars []types.PriceBar, start time.Time, end time.Time) (types.PriceSeries, error) {
	for i := range bars {
		bars[i].Date = truncateDay(bars[i].Date)

		if i == 0 {
			continue
		}

		prev := bars[i-1].Date
		if bars[i].Date.Equal(prev) {
			return types.PriceSeries{}, errors.NewMalformedPriceSeriesError(symbol, i, bars[i].Date, "duplicate bar date")
		}

		if bars[i].Date.Before(prev) {
			return types.PriceSeries{}, errors.NewMalformedPriceSeriesError(symbol, i, bars[i].Date, "bars are out of order")
		}
	}

	from := truncateDay(start)
	to := truncateDay(end)
	result := make([]types.PriceBar, 0, len(bars))

	for _, bar := range bars {
		if bar.Date.Before(from) || bar.Date.After(to) {
			continue
		}

		result = append(result, bar)
	}

	if len(result) == 0 {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	return types.PriceSeries{Symbol: symbol, Bars: result}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
