package strategy

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/schema"
)

type SmaCrossoverParams struct {
	FastPeriod int `yaml:"fast_period" json:"fast_period" jsonschema:"title=Fast SMA period,default=50" validate:"gt=0"`
	SlowPeriod int `yaml:"slow_period" json:"slow_period" jsonschema:"title=Slow SMA period,default=200" validate:"gtfield=FastPeriod"`
}

type RSIParams struct {
	Period     int     `yaml:"period" json:"period" jsonschema:"title=RSI period,default=14" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" json:"oversold" jsonschema:"title=Oversold threshold,default=30" validate:"gte=0,lt=100"`
	Overbought float64 `yaml:"overbought" json:"overbought" jsonschema:"title=Overbought threshold,default=70" validate:"gtfield=Oversold,lte=100"`
}

type MACDParams struct {
	FastPeriod   int `yaml:"fast_period" json:"fast_period" jsonschema:"title=Fast EMA period,default=12" validate:"gt=0"`
	SlowPeriod   int `yaml:"slow_period" json:"slow_period" jsonschema:"title=Slow EMA period,default=26" validate:"gtfield=FastPeriod"`
	SignalPeriod int `yaml:"signal_period" json:"signal_period" jsonschema:"title=Signal EMA period,default=9" validate:"gt=0"`
}

type BollingerParams struct {
	Period int     `yaml:"period" json:"period" jsonschema:"title=Band period,default=20" validate:"gt=1"`
	StdDev float64 `yaml:"std_dev" json:"std_dev" jsonschema:"title=Standard deviation multiplier,default=2" validate:"gt=0"`
}

type SeasonalParams struct {
	// FavorableMonths are derived from the series when empty.
	FavorableMonths []time.Month `yaml:"favorable_months" json:"favorable_months" jsonschema:"title=Favorable months (1-12)" validate:"dive,min=1,max=12"`
	// UnfavorableMonths are derived from the series when both month sets are empty.
	UnfavorableMonths []time.Month `yaml:"unfavorable_months" json:"unfavorable_months" jsonschema:"title=Unfavorable months (1-12)" validate:"dive,min=1,max=12"`
	// EntryWindowDays is the number of trading days at the start of a favorable month during which entries are allowed.
	EntryWindowDays int `yaml:"entry_window_days" json:"entry_window_days" jsonschema:"title=Entry window in trading days,default=5" validate:"gt=0"`
	// TrendPeriod is the moving average the price must be above to enter.
	TrendPeriod int `yaml:"trend_period" json:"trend_period" jsonschema:"title=Trend filter SMA period,default=20" validate:"gt=0"`
}

type MomentumParams struct {
	BreakoutPeriod int `yaml:"breakout_period" json:"breakout_period" jsonschema:"title=Breakout lookback,default=20" validate:"gt=0"`
	ExitPeriod     int `yaml:"exit_period" json:"exit_period" jsonschema:"title=Breakdown lookback,default=20" validate:"gt=0"`
}

type PairParams struct {
	SecondarySymbol string  `yaml:"secondary_symbol" json:"secondary_symbol" jsonschema:"title=Second leg symbol"`
	Lookback        int     `yaml:"lookback" json:"lookback" jsonschema:"title=Rolling z-score lookback,default=20" validate:"gt=1"`
	EntryZScore     float64 `yaml:"entry_z_score" json:"entry_z_score" jsonschema:"title=Entry z-score,default=2" validate:"gt=0"`
	ExitZScore      float64 `yaml:"exit_z_score" json:"exit_z_score" jsonschema:"title=Exit z-score,default=0.5" validate:"gte=0,ltfield=EntryZScore"`
	MaxHoldingBars  int     `yaml:"max_holding_bars" json:"max_holding_bars" jsonschema:"title=Maximum holding period in bars,default=30" validate:"gt=0"`
	// AllowShort lets the spread trade sell the first leg short when it is rich.
	AllowShort bool `yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow short entries,default=true"`
}

// Parameters configures every strategy family. Each run only reads the block of its own strategy.
type Parameters struct {
	SmaCrossover SmaCrossoverParams `yaml:"sma_crossover" json:"sma_crossover"`
	RSI          RSIParams          `yaml:"rsi" json:"rsi"`
	MACD         MACDParams         `yaml:"macd" json:"macd"`
	Bollinger    BollingerParams    `yaml:"bollinger" json:"bollinger"`
	Seasonal     SeasonalParams     `yaml:"seasonal" json:"seasonal"`
	Momentum     MomentumParams     `yaml:"momentum" json:"momentum"`
	Pair         PairParams         `yaml:"pair" json:"pair"`
}

// DefaultParameters returns the conventional settings of every family.
func DefaultParameters() Parameters {
	return Parameters{
		SmaCrossover: SmaCrossoverParams{FastPeriod: 50, SlowPeriod: 200},
		RSI:          RSIParams{Period: 14, Oversold: 30, Overbought: 70},
		MACD:         MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9},
		Bollinger:    BollingerParams{Period: 20, StdDev: 2},
		Seasonal: SeasonalParams{
			FavorableMonths:   nil,
			UnfavorableMonths: nil,
			EntryWindowDays:   5,
			TrendPeriod:       20,
		},
		Momentum: MomentumParams{BreakoutPeriod: 20, ExitPeriod: 20},
		Pair: PairParams{
			SecondarySymbol: "",
			Lookback:        20,
			EntryZScore:     2.0,
			ExitZScore:      0.5,
			MaxHoldingBars:  30,
			AllowShort:      true,
		},
	}
}

// Validate checks every parameter block.
func (p Parameters) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy parameters", err)
	}

	return nil
}

// ParametersSchema returns the JSON schema of Parameters.
func ParametersSchema() (string, error) {
	return schema.ToJSONSchema(Parameters{})
}
