package marketdata

import (
	"fmt"
	"sort"

	"github.com/rxtech-lab/argo-backtest/pkg/schema"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	Remote       bool   `json:"remote"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market daily aggregates",
		RequiresAuth: true,
		Remote:       true,
	},
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency daily klines from the public market data API",
		RequiresAuth: false,
		Remote:       true,
	},
	ProviderYahoo: {
		Name:         string(ProviderYahoo),
		DisplayName:  "Yahoo Finance",
		Description:  "Split and dividend adjusted daily bars for stocks, ETFs and futures",
		RequiresAuth: false,
		Remote:       true,
	},
	ProviderCSV: {
		Name:         string(ProviderCSV),
		DisplayName:  "CSV files",
		Description:  "One <SYMBOL>.csv file per symbol with date,open,high,low,close,volume columns",
		RequiresAuth: false,
		Remote:       false,
	},
	ProviderDuckDB: {
		Name:         string(ProviderDuckDB),
		DisplayName:  "Parquet files",
		Description:  "Parquet files written by the download command, queried with DuckDB",
		RequiresAuth: false,
		Remote:       false,
	},
}

// GetSupportedProviders returns the sorted names of all supported providers.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(PolygonDownloadConfig{})
	case ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(BinanceDownloadConfig{})
	case ProviderYahoo:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(YahooDownloadConfig{})
	default:
		return "", fmt.Errorf("provider %s does not download", providerName)
	}
}
