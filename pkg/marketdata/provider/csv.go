package provider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// csvBar is one row of a <SYMBOL>.csv file. Dates are YYYY-MM-DD.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSVProvider reads one CSV file per symbol from a directory.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) path(symbol string) string {
	return filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
}

func (p *CSVProvider) GetPriceSeries(_ context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	file, err := os.Open(p.path(symbol))
	if os.IsNotExist(err) {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	if err != nil {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, err)
	}
	defer file.Close()

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", p.path(symbol))
	}

	bars := make([]types.PriceBar, 0, len(rows))

	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(row.Date))
		if err != nil {
			return types.PriceSeries{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid date %q in %s", row.Date, p.path(symbol))
		}

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	return newSeries(symbol, bars, start, end)
}

// WriteCSV stores a series in the layout CSVProvider reads.
func WriteCSV(dir string, series types.PriceSeries) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	rows := make([]*csvBar, len(series.Bars))
	for i, bar := range series.Bars {
		rows[i] = &csvBar{
			Date:   bar.Date.Format(time.DateOnly),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}

	path := NewCSVProvider(dir).path(series.Symbol)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", err
	}

	return path, nil
}
