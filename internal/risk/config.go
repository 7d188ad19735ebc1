package risk

import (
	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// StopLossMethod selects how the stop level is derived from the entry.
type StopLossMethod string

const (
	// StopLossPercentage places the stop Value (a fraction) away from the entry price.
	StopLossPercentage StopLossMethod = "percentage"
	// StopLossATR places the stop Value multiples of the ATR away from the entry price.
	StopLossATR StopLossMethod = "atr"
	// StopLossVolatility places the stop Value multiples of the annualized volatility away.
	StopLossVolatility StopLossMethod = "volatility"
	// StopLossFixed places the stop Value currency units away from the entry price.
	StopLossFixed StopLossMethod = "fixed"
	// StopLossNone disables the stop-loss.
	StopLossNone StopLossMethod = "none"
)

const (
	DefaultStopLossPct            = 0.08
	DefaultATRPeriod              = 14
	DefaultTrailingStopActivation = 0.10
	DefaultTrailingStopDistance   = 0.05
	tradingDaysPerYear            = 252
)

// Config is the risk overlay applied on top of every strategy.
type Config struct {
	// EnforceBuyFirst downgrades sell signals to HOLD while no position is open.
	EnforceBuyFirst bool           `yaml:"enforce_buy_first" json:"enforce_buy_first" jsonschema:"title=Enforce buy-first rule,default=true"`
	StopLossMethod  StopLossMethod `yaml:"stop_loss_method" json:"stop_loss_method" jsonschema:"title=Stop-loss method,enum=percentage,enum=atr,enum=volatility,enum=fixed,enum=none,default=percentage" validate:"oneof=percentage atr volatility fixed none"`
	StopLossValue   float64        `yaml:"stop_loss_value" json:"stop_loss_value" jsonschema:"title=Stop-loss value,default=0.08" validate:"gte=0"`
	// ATRPeriod is also the return window of the volatility method.
	ATRPeriod int `yaml:"atr_period" json:"atr_period" jsonschema:"title=ATR period,default=14" validate:"gt=0"`
	// TrailingStopActivation is the unrealized gain that arms the trailing stop.
	TrailingStopActivation float64 `yaml:"trailing_stop_activation" json:"trailing_stop_activation" jsonschema:"title=Trailing stop activation,default=0.1" validate:"gte=0"`
	// TrailingStopDistance is the retracement from the peak that triggers the exit. Zero disables the trailing stop.
	TrailingStopDistance float64 `yaml:"trailing_stop_distance" json:"trailing_stop_distance" jsonschema:"title=Trailing stop distance,default=0.05" validate:"gte=0,lt=1"`
	// TakeProfit is the unrealized gain that closes the position. Zero disables it.
	TakeProfit float64 `yaml:"take_profit" json:"take_profit" jsonschema:"title=Take profit,default=0" validate:"gte=0"`
}

// DefaultConfig returns an 8% stop-loss with a 10%/5% trailing stop and buy-first enforced.
func DefaultConfig() Config {
	return Config{
		EnforceBuyFirst:        true,
		StopLossMethod:         StopLossPercentage,
		StopLossValue:          DefaultStopLossPct,
		ATRPeriod:              DefaultATRPeriod,
		TrailingStopActivation: DefaultTrailingStopActivation,
		TrailingStopDistance:   DefaultTrailingStopDistance,
		TakeProfit:             0,
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStopLoss, "invalid risk configuration", err)
	}

	if c.StopLossMethod == StopLossPercentage && c.StopLossValue >= 1 {
		return errors.Newf(errors.ErrCodeInvalidStopLoss, "percentage stop-loss must be below 1, got %.4f", c.StopLossValue)
	}

	return nil
}
