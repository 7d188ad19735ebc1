package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// BaseDownloadConfig contains common fields for all download configurations.
type BaseDownloadConfig struct {
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. SPY or BTCUSDT),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=First day to download (YYYY-MM-DD),format=date,required" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=Last day to download (YYYY-MM-DD),format=date,required" validate:"required,datetime=2006-01-02"`
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// BinanceDownloadConfig contains configuration for downloading from Binance.
// Binance public market data API does not require authentication.
type BinanceDownloadConfig struct {
	BaseDownloadConfig
}

// YahooDownloadConfig contains configuration for downloading from Yahoo Finance.
type YahooDownloadConfig struct {
	BaseDownloadConfig
}

// Validate validates the BaseDownloadConfig fields.
func (c *BaseDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	params, err := c.ToDownloadParams()
	if err != nil {
		return err
	}

	if params.EndDate.Before(params.StartDate) {
		return fmt.Errorf("invalid config: endDate %s is before startDate %s", c.EndDate, c.StartDate)
	}

	return nil
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return c.BaseDownloadConfig.Validate()
}

// ToDownloadParams parses the dates of the configuration.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := time.Parse(time.DateOnly, c.StartDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse startDate: %w", err)
	}

	endDate, err := time.Parse(time.DateOnly, c.EndDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse endDate: %w", err)
	}

	return DownloadParams{
		Ticker:    c.Ticker,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: c.ApiKey,
	}
}

// ParseDownloadConfig parses the JSON download configuration of a provider and returns
// the client configuration and download parameters it describes.
func ParseDownloadConfig(providerName string, jsonConfig string, dataPath string) (ClientConfig, DownloadParams, error) {
	var base *BaseDownloadConfig

	clientConfig := ClientConfig{
		ProviderType: ProviderType(providerName),
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
	}

	switch ProviderType(providerName) {
	case ProviderPolygon:
		var config PolygonDownloadConfig
		if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
			return ClientConfig{}, DownloadParams{}, fmt.Errorf("failed to parse JSON config: %w", err)
		}

		if err := config.Validate(); err != nil {
			return ClientConfig{}, DownloadParams{}, err
		}

		clientConfig = config.ToClientConfig(dataPath)
		base = &config.BaseDownloadConfig
	case ProviderBinance, ProviderYahoo:
		var config BaseDownloadConfig
		if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
			return ClientConfig{}, DownloadParams{}, fmt.Errorf("failed to parse JSON config: %w", err)
		}

		if err := config.Validate(); err != nil {
			return ClientConfig{}, DownloadParams{}, err
		}

		base = &config
	default:
		return ClientConfig{}, DownloadParams{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	params, err := base.ToDownloadParams()
	if err != nil {
		return ClientConfig{}, DownloadParams{}, err
	}

	return clientConfig, params, nil
}
