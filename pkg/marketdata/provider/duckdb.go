package provider

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DuckDBProvider queries the parquet files of a data directory, the layout written by
// marketdata.Client downloads. Every file holds a market_data table with a symbol column.
type DuckDBProvider struct {
	dir string
	sq  squirrel.StatementBuilderType
}

func NewDuckDBProvider(dir string) *DuckDBProvider {
	return &DuckDBProvider{
		dir: dir,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *DuckDBProvider) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	pattern := filepath.Join(p.dir, "*.parquet")

	files, err := filepath.Glob(pattern)
	if err != nil || len(files) == 0 {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, err)
	}
	defer db.Close()

	// read_parquet takes the glob literally, so it cannot be a bound parameter
	query, args, err := p.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From(fmt.Sprintf("read_parquet('%s', union_by_name = true)", pattern)).
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"time": truncateDay(start)}).
		Where(squirrel.Lt{"time": truncateDay(end).AddDate(0, 0, 1)}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, err)
	}
	defer rows.Close()

	bars := make([]types.PriceBar, 0)

	for rows.Next() {
		var bar types.PriceBar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", err)
	}

	return newSeries(symbol, bars, start, end)
}
