package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// YahooClient reads daily bars from the Yahoo Finance chart API. Prices are adjusted
// for splits and dividends using the adjusted close.
type YahooClient struct {
	client *resty.Client
}

// NewYahooClient creates a client against baseURL, or the public endpoint when empty.
func NewYahooClient(baseURL string) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetBaseURL(baseURL)
	client.SetHeader("User-Agent", "argo-backtest")

	return &YahooClient{
		client: client,
	}
}

func (c *YahooClient) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10),
			"interval": "1d",
			"events":   "div,split",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	if resp.IsError() {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, fmt.Errorf("yahoo returned status %d", resp.StatusCode()))
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse chart for %s", symbol)
	}

	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	return newSeries(symbol, chartBars(chart.Chart.Result[0]), start, end)
}

// chartBars skips rows with a missing close. When an adjusted close is present the
// whole bar is scaled by adjclose/close.
func chartBars(result yahooChartResult) []types.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	quote := result.Indicators.Quote[0]

	var adjusted []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjusted = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]types.PriceBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice <= 0 {
			continue
		}

		factor := 1.0
		if adj := at(adjusted, i); adj > 0 {
			factor = adj / closePrice
		}

		bars = append(bars, types.PriceBar{
			Date:   time.Unix(ts, 0),
			Open:   at(quote.Open, i) * factor,
			High:   at(quote.High, i) * factor,
			Low:    at(quote.Low, i) * factor,
			Close:  closePrice * factor,
			Volume: at(quote.Volume, i),
		})
	}

	return bars
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}

	return *values[i]
}
