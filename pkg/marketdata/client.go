package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
	ProviderYahoo   = provider.ProviderYahoo
	ProviderCSV     = provider.ProviderCSV
	ProviderDuckDB  = provider.ProviderDuckDB
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// DefaultCacheTTL applies when a redis cache is configured without a TTL.
const DefaultCacheTTL = 24 * time.Hour

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon binance yahoo csv duckdb"`
	WriterType    WriterType   `validate:"omitempty,oneof=duckdb"`
	DataPath      string       `validate:"required_if=ProviderType csv,required_if=ProviderType duckdb"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	// RequestsPerSecond serializes upstream requests when positive.
	RequestsPerSecond float64 `validate:"gte=0"`
	// RedisURL enables the read-through series cache, e.g. redis://localhost:6379/0.
	RedisURL string `validate:"omitempty,url"`
	CacheTTL time.Duration
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
}

// Client resolves price series through the configured provider chain and downloads
// them to local parquet files.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
}

// NewClient builds the provider named by the configuration, wrapped by a rate limiter
// and a redis cache when those are configured.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	var providerConfig any

	switch config.ProviderType {
	case ProviderPolygon:
		providerConfig = config.PolygonApiKey
	case ProviderCSV, ProviderDuckDB:
		providerConfig = config.DataPath
	case ProviderBinance, ProviderYahoo:
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, providerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", config.ProviderType, err)
	}

	if config.RequestsPerSecond > 0 {
		marketProvider = provider.NewRateLimitedProvider(marketProvider, config.RequestsPerSecond)
	}

	if config.RedisURL != "" {
		options, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}

		ttl := config.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}

		marketProvider = provider.NewCachedProvider(marketProvider, provider.NewRedisCache(redis.NewClient(options)), ttl, log)
	}

	return NewClientWithProvider(config, marketProvider, onProgress, log), nil
}

// NewClientWithProvider wraps an existing provider without validating the configuration.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress, log *logger.Logger) *Client {
	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		logger:     log,
	}
}

// GetPriceSeries implements provider.Provider.
func (c *Client) GetPriceSeries(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	return c.provider.GetPriceSeries(ctx, symbol, start, end)
}

// Download fetches the series and writes it to a parquet file under the data path,
// returning the file path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (path string, err error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	series, err := c.provider.GetPriceSeries(ctx, params.Ticker, params.StartDate, params.EndDate)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	defer func() {
		if cerr := marketWriter.Close(); cerr != nil {
			c.logger.Warn("Failed to close writer", zap.Error(cerr))
		}
	}()

	total := float64(series.Len())
	message := fmt.Sprintf("Downloading %s", params.Ticker)

	for i, bar := range series.Bars {
		if err := marketWriter.Write(series.Symbol, bar); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		if c.onProgress != nil {
			c.onProgress(float64(i+1), total, message)
		}
	}

	path, err = marketWriter.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	c.logger.Info("Downloaded price series",
		zap.String("ticker", params.Ticker),
		zap.Int("bars", series.Len()),
		zap.String("path", path),
	)

	return path, nil
}

// setupWriter initializes the appropriate market data writer based on configuration.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB, "":
		// TICKER_START_END.parquet
		outputFileName := fmt.Sprintf("%s_%s_%s.parquet",
			params.Ticker,
			params.StartDate.Format(time.DateOnly),
			params.EndDate.Format(time.DateOnly))

		dataPath := c.config.DataPath
		if dataPath == "" {
			dataPath = "."
		}

		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data path: %w", err)
		}

		outputPath := filepath.Join(dataPath, outputFileName)
		duckdbWriter := writer.NewDuckDBWriter(outputPath)

		if err := duckdbWriter.Initialize(); err != nil {
			return nil, fmt.Errorf("failed to initialize DuckDB writer at %s: %w", outputPath, err)
		}

		return duckdbWriter, nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", c.config.WriterType)
	}
}
