package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
)

type RunConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestRunConfigSuite(t *testing.T) {
	suite.Run(t, new(RunConfigTestSuite))
}

func (suite *RunConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.T().Setenv("REDIS_URL", "")
	suite.T().Setenv("BACKTEST_DATA_PATH", "")
}

func (suite *RunConfigTestSuite) write(content string) string {
	path := filepath.Join(suite.dir, "backtest.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *RunConfigTestSuite) TestMissingFileUsesDefaults() {
	config, err := LoadRunConfig(filepath.Join(suite.dir, "missing.yaml"))
	suite.Require().NoError(err)
	suite.Equal(DefaultRunConfig(), config)
	suite.Equal(string(marketdata.ProviderYahoo), config.MarketData.Provider)
	suite.Equal(":8080", config.Server.Address)
}

func (suite *RunConfigTestSuite) TestFileOverridesDefaults() {
	path := suite.write(`
engine:
  initial_capital: 25000
  broker: interactive_broker
market_data:
  provider: csv
  data_path: /tmp/prices
  cache_ttl: 1h
strategies:
  pair:
    secondary_symbol: GDX
server:
  address: 127.0.0.1:9000
`)

	config, err := LoadRunConfig(path)
	suite.Require().NoError(err)
	suite.Equal(25000.0, config.Engine.InitialCapital)
	suite.Equal(commission_fee.BrokerInteractiveBroker, config.Engine.Broker)
	suite.Equal("csv", config.MarketData.Provider)
	suite.Equal("/tmp/prices", config.MarketData.DataPath)
	suite.Equal(time.Hour, config.MarketData.CacheTTL)
	suite.Equal(DefaultRunConfig().MarketData.RequestsPerSecond, config.MarketData.RequestsPerSecond)
	suite.Equal("GDX", config.Strategies.Pair.SecondarySymbol)
	suite.Equal(DefaultRunConfig().Strategies.RSI, config.Strategies.RSI)
	suite.Equal("127.0.0.1:9000", config.Server.Address)
}

func (suite *RunConfigTestSuite) TestEnvironmentFillsGaps() {
	suite.T().Setenv("REDIS_URL", "redis://localhost:6379/0")
	suite.T().Setenv("BACKTEST_DATA_PATH", "/var/lib/prices")

	config, err := LoadRunConfig(filepath.Join(suite.dir, "missing.yaml"))
	suite.Require().NoError(err)
	suite.Equal("redis://localhost:6379/0", config.MarketData.RedisURL)
	suite.Equal("/var/lib/prices", config.MarketData.DataPath)

	path := suite.write(`
market_data:
  provider: duckdb
  data_path: ./local
  redis_url: redis://cache:6379/1
`)

	config, err = LoadRunConfig(path)
	suite.Require().NoError(err)
	suite.Equal("redis://cache:6379/1", config.MarketData.RedisURL)
	suite.Equal("./local", config.MarketData.DataPath)
}

func (suite *RunConfigTestSuite) TestInvalidConfig() {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown provider",
			content: `
market_data:
  provider: bloomberg
`,
		},
		{
			name: "negative rate",
			content: `
market_data:
  provider: yahoo
  requests_per_second: -1
`,
		},
		{
			name: "zero capital",
			content: `
engine:
  initial_capital: 0
`,
		},
		{
			name: "slow period below fast period",
			content: `
strategies:
  sma_crossover:
    fast_period: 50
    slow_period: 20
`,
		},
		{
			name:    "malformed yaml",
			content: "engine: [",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := LoadRunConfig(suite.write(tc.content))
			suite.Error(err)
		})
	}
}

func (suite *RunConfigTestSuite) TestClientConfig() {
	suite.T().Setenv("POLYGON_API_KEY", "key")

	config := DefaultRunConfig()
	config.MarketData.Provider = string(marketdata.ProviderPolygon)

	clientConfig := config.clientConfig()
	suite.Equal(marketdata.ProviderPolygon, clientConfig.ProviderType)
	suite.Equal(marketdata.WriterDuckDB, clientConfig.WriterType)
	suite.Equal("key", clientConfig.PolygonApiKey)
	suite.Equal(marketdata.DefaultCacheTTL, clientConfig.CacheTTL)
}

func (suite *RunConfigTestSuite) TestProfileStore() {
	store, err := DefaultRunConfig().profileStore()
	suite.Require().NoError(err)

	_, err = store.Get(string(commission_fee.BrokerCME))
	suite.NoError(err)

	config := DefaultRunConfig()
	config.CostProfiles = filepath.Join(suite.dir, "missing-profiles.yaml")

	_, err = config.profileStore()
	suite.Error(err)
}
