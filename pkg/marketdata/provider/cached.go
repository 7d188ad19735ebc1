package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SeriesCache stores encoded series by key. A miss returns ok == false and no error.
type SeriesCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisCache struct {
	rdb *redis.Client
}

// NewRedisCache adapts a redis client to SeriesCache.
func NewRedisCache(rdb *redis.Client) SeriesCache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedProvider wraps a provider with a read-through cache. Cache failures are
// logged and fall back to the wrapped provider.
type CachedProvider struct {
	primary Provider
	cache   SeriesCache
	ttl     time.Duration
	logger  *logger.Logger
}

func NewCachedProvider(primary Provider, cache SeriesCache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		primary: primary,
		cache:   cache,
		ttl:     ttl,
		logger:  log,
	}
}

func seriesKey(symbol string, start time.Time, end time.Time) string {
	return fmt.Sprintf("series:%s:%s:%s", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
}

func (p *CachedProvider) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	key := seriesKey(symbol, start, end)

	data, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Series cache read failed", zap.String("key", key), zap.Error(err))
	}

	if ok {
		var series types.PriceSeries
		if json.Unmarshal(data, &series) == nil {
			return series, nil
		}
	}

	series, err := p.primary.GetPriceSeries(ctx, symbol, start, end)
	if err != nil {
		return types.PriceSeries{}, err
	}

	if encoded, err := json.Marshal(series); err == nil {
		if err := p.cache.Set(ctx, key, encoded, p.ttl); err != nil {
			p.logger.Warn("Series cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return series, nil
}
