package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RateLimitedProvider serializes fetches against an upstream quota: one request at a
// time, at most the limiter's rate.
type RateLimitedProvider struct {
	primary Provider
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewRateLimitedProvider allows requestsPerSecond sustained requests with no burst.
func NewRateLimitedProvider(primary Provider, requestsPerSecond float64) *RateLimitedProvider {
	return &RateLimitedProvider{
		primary: primary,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (p *RateLimitedProvider) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return types.PriceSeries{}, errors.NewDataUnavailableError(symbol, err)
	}

	return p.primary.GetPriceSeries(ctx, symbol, start, end)
}
