package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/risk"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const (
	DefaultInitialCapital   = 10000.0
	DefaultDecimalPrecision = 4
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0" validate:"gt=0"`
	Broker         commission_fee.Broker      `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The cost profile used for commissions fees and financing"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	// DecimalPrecision is the number of decimals kept when sizing a position. Zero trades whole units only.
	DecimalPrecision int         `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Quantity precision used when sizing positions,minimum=0,default=4" validate:"gte=0,lte=8"`
	Risk             risk.Config `yaml:"risk" json:"risk" jsonschema:"title=Risk,description=Stop-loss trailing stop and buy-first rules"`
	// ResultsFolder receives the ledger and equity curve of every run when set.
	ResultsFolder string `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Optional folder for parquet exports"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Fields missing from the document keep their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64               `yaml:"initial_capital"`
		Broker           commission_fee.Broker `yaml:"broker"`
		StartTime        *time.Time            `yaml:"start_time"`
		EndTime          *time.Time            `yaml:"end_time"`
		DecimalPrecision *int                  `yaml:"decimal_precision"`
		Risk             risk.Config           `yaml:"risk"`
		ResultsFolder    string                `yaml:"results_folder"`
	}

	defaults := EmptyConfig()
	config := Config{
		InitialCapital:   defaults.InitialCapital,
		Broker:           defaults.Broker,
		StartTime:        nil,
		EndTime:          nil,
		DecimalPrecision: nil,
		Risk:             defaults.Risk,
		ResultsFolder:    "",
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = defaults
	c.InitialCapital = config.InitialCapital
	c.Broker = config.Broker
	c.Risk = config.Risk
	c.ResultsFolder = config.ResultsFolder

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.DecimalPrecision != nil {
		c.DecimalPrecision = *config.DecimalPrecision
	}

	return nil
}

// Validate checks the capital, the period and the risk rules.
func (c BacktestEngineV1Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %.2f", c.InitialCapital)
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end time is before start time")
	}

	return c.Risk.Validate()
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   DefaultInitialCapital,
		Broker:           commission_fee.BrokerInteractiveBroker,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		DecimalPrecision: DefaultDecimalPrecision,
		Risk:             risk.DefaultConfig(),
		ResultsFolder:    "",
	}
}
