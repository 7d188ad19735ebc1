package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// binancePageSize is the number of klines Binance returns by default per request.
const binancePageSize = 500

// BinanceKlinesService is the subset of the kline service builder used here.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the subset of the Binance client used here.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{service: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	service *binance.KlinesService
}

func (a *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	a.service.Symbol(symbol)

	return a
}

func (a *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	a.service.Interval(interval)

	return a
}

func (a *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	a.service.StartTime(startTime)

	return a
}

func (a *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	a.service.EndTime(endTime)

	return a
}

func (a *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return a.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient uses the public market data API, which needs no credentials.
func NewBinanceClient() (Provider, error) {
	return &BinanceClient{
		apiClient: &binanceAPIAdapter{client: binance.NewClient("", "")},
	}, nil
}

// NewBinanceClientWithAPI creates a client backed by the given API, used by tests.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: apiClient,
	}
}

// GetPriceSeries pages through the daily klines of the pair.
func (c *BinanceClient) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	endTimeMillis := end.UnixMilli()
	currentStartTime := start.UnixMilli()
	bars := make([]types.PriceBar, 0)

	for {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Do(ctx)
		if err != nil {
			return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, fmt.Errorf("failed to fetch klines from Binance: %w", err))
		}

		page, err := parseKlines(klines)
		if err != nil {
			return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse klines for %s", symbol)
		}

		bars = append(bars, page...)

		if len(klines) < binancePageSize {
			break
		}

		// Next page starts right after the close of the last kline
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	return newSeries(symbol, bars, start, end)
}

func parseKlines(klines []*binance.Kline) ([]types.PriceBar, error) {
	bars := make([]types.PriceBar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid kline value %q: %w", raw, err)
			}

			values[i] = value
		}

		bars = append(bars, types.PriceBar{
			Date:   time.UnixMilli(k.OpenTime),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}
