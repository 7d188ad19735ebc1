package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	engine_v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/metrics"
	"github.com/rxtech-lab/argo-backtest/internal/pair"
	"github.com/rxtech-lab/argo-backtest/internal/service"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
)

// MarketDataConfig selects where price series come from.
type MarketDataConfig struct {
	Provider string `yaml:"provider" validate:"required,oneof=polygon binance yahoo csv duckdb"`
	// DataPath is the folder of csv or parquet files, and the download target.
	DataPath          string        `yaml:"data_path"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"`
	RedisURL          string        `yaml:"redis_url"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

// RunConfig is the content of backtest.yaml.
type RunConfig struct {
	Engine     engine_v1.BacktestEngineV1Config `yaml:"engine"`
	MarketData MarketDataConfig                 `yaml:"market_data"`
	Strategies strategy.Parameters              `yaml:"strategies"`
	// CostProfiles is an optional YAML file of extra broker cost profiles.
	CostProfiles string       `yaml:"cost_profiles"`
	Server       ServerConfig `yaml:"server"`
}

// DefaultRunConfig is used when no configuration file exists.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Engine: engine_v1.EmptyConfig(),
		MarketData: MarketDataConfig{
			Provider:          string(marketdata.ProviderYahoo),
			DataPath:          "data",
			RequestsPerSecond: 2,
			RedisURL:          "",
			CacheTTL:          marketdata.DefaultCacheTTL,
		},
		Strategies:   strategy.DefaultParameters(),
		CostProfiles: "",
		Server:       ServerConfig{Address: ":8080"},
	}
}

// LoadRunConfig reads path over the defaults. A missing file yields the defaults.
// REDIS_URL and BACKTEST_DATA_PATH fill the matching fields when the file leaves them empty.
func LoadRunConfig(path string) (RunConfig, error) {
	config := DefaultRunConfig()

	data, err := os.ReadFile(path)

	switch {
	case os.IsNotExist(err):
	case err != nil:
		return RunConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return RunConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if config.MarketData.RedisURL == "" {
		config.MarketData.RedisURL = os.Getenv("REDIS_URL")
	}

	if dataPath := os.Getenv("BACKTEST_DATA_PATH"); dataPath != "" && config.MarketData.DataPath == DefaultRunConfig().MarketData.DataPath {
		config.MarketData.DataPath = dataPath
	}

	if err := config.Validate(); err != nil {
		return RunConfig{}, err
	}

	return config, nil
}

func (c RunConfig) Validate() error {
	if err := validator.New().Struct(c.MarketData); err != nil {
		return fmt.Errorf("invalid market data config: %w", err)
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}

	return c.Strategies.Validate()
}

func (c RunConfig) clientConfig() marketdata.ClientConfig {
	return marketdata.ClientConfig{
		ProviderType:      marketdata.ProviderType(c.MarketData.Provider),
		WriterType:        marketdata.WriterDuckDB,
		DataPath:          c.MarketData.DataPath,
		PolygonApiKey:     os.Getenv("POLYGON_API_KEY"),
		RequestsPerSecond: c.MarketData.RequestsPerSecond,
		RedisURL:          c.MarketData.RedisURL,
		CacheTTL:          c.MarketData.CacheTTL,
	}
}

func (c RunConfig) profileStore() (commission_fee.ProfileStore, error) {
	if c.CostProfiles == "" {
		return commission_fee.NewMemoryProfileStore(), nil
	}

	store, err := commission_fee.LoadProfileStore(c.CostProfiles)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// app wires the service from a run configuration.
type app struct {
	config  RunConfig
	client  *marketdata.Client
	service *service.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func newApp(config RunConfig, log *logger.Logger) (*app, error) {
	client, err := marketdata.NewClient(config.clientConfig(), nil, log)
	if err != nil {
		return nil, err
	}

	profiles, err := config.profileStore()
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	svc := service.NewService(client, config.Engine, log,
		service.WithPairAnalytics(pair.NewAnalyzer(client, log)),
		service.WithProfileStore(profiles),
		service.WithParameters(config.Strategies),
		service.WithMetrics(m),
	)

	return &app{
		config:  config,
		client:  client,
		service: svc,
		metrics: m,
		logger:  log,
	}, nil
}
