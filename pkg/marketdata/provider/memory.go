package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MemoryProvider serves series held in memory. It is safe for concurrent use.
type MemoryProvider struct {
	mu     sync.RWMutex
	series map[string]types.PriceSeries
}

func NewMemoryProvider(series ...types.PriceSeries) *MemoryProvider {
	p := &MemoryProvider{series: make(map[string]types.PriceSeries, len(series))}
	for _, s := range series {
		p.Add(s)
	}

	return p
}

// Add stores or replaces the series of its symbol.
func (p *MemoryProvider) Add(series types.PriceSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.series[strings.ToUpper(series.Symbol)] = series
}

func (p *MemoryProvider) GetPriceSeries(_ context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	p.mu.RLock()
	series, ok := p.series[strings.ToUpper(symbol)]
	p.mu.RUnlock()

	if !ok {
		return types.PriceSeries{}, errors.NewSymbolNotFoundError(symbol)
	}

	bars := make([]types.PriceBar, len(series.Bars))
	copy(bars, series.Bars)

	return newSeries(series.Symbol, bars, start, end)
}
