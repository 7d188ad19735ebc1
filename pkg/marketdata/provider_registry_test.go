package marketdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"binance", "csv", "duckdb", "polygon", "yahoo"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo() {
	testCases := []struct {
		name         string
		requiresAuth bool
		remote       bool
		expectError  bool
	}{
		{name: "polygon", requiresAuth: true, remote: true},
		{name: "binance", remote: true},
		{name: "yahoo", remote: true},
		{name: "csv"},
		{name: "duckdb"},
		{name: "bloomberg", expectError: true},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			info, err := GetProviderInfo(tc.name)
			if tc.expectError {
				suite.Error(err)
				suite.Contains(err.Error(), "unsupported provider")

				return
			}

			suite.NoError(err)
			suite.Equal(tc.name, info.Name)
			suite.NotEmpty(info.DisplayName)
			suite.NotEmpty(info.Description)
			suite.Equal(tc.requiresAuth, info.RequiresAuth)
			suite.Equal(tc.remote, info.Remote)
		})
	}
}

func (suite *ProviderRegistryTestSuite) TestGetDownloadConfigSchema() {
	schemaJSON, err := GetDownloadConfigSchema("polygon")
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "ticker")
	suite.Contains(properties, "startDate")
	suite.Contains(properties, "apiKey")

	schemaJSON, err = GetDownloadConfigSchema("yahoo")
	suite.Require().NoError(err)
	suite.NotContains(schemaJSON, "apiKey")

	_, err = GetDownloadConfigSchema("duckdb")
	suite.Error(err)
	suite.Contains(err.Error(), "does not download")
}
