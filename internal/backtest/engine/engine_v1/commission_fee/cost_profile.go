package commission_fee

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// CostProfile holds the broker constants of a cost model. Per-unit fees are charged
// per share or per contract on every transition.
type CostProfile struct {
	Name               string  `yaml:"name" json:"name" jsonschema:"title=Name" validate:"required"`
	CommissionPerUnit  float64 `yaml:"commission_per_unit" json:"commission_per_unit" jsonschema:"title=Commission per unit,minimum=0" validate:"gte=0"`
	MinCommission      float64 `yaml:"min_commission" json:"min_commission" jsonschema:"title=Minimum commission per transition,minimum=0" validate:"gte=0"`
	ExchangeFeePerUnit float64 `yaml:"exchange_fee_per_unit" json:"exchange_fee_per_unit" jsonschema:"title=Exchange fee per unit,minimum=0" validate:"gte=0"`
	ClearingFeePerUnit float64 `yaml:"clearing_fee_per_unit" json:"clearing_fee_per_unit" jsonschema:"title=Clearing fee per unit,minimum=0" validate:"gte=0"`
	// OvernightRate is the daily financing rate charged on the margined notional.
	OvernightRate float64 `yaml:"overnight_rate" json:"overnight_rate" jsonschema:"title=Daily overnight financing rate,minimum=0" validate:"gte=0"`
	// MarginRate is the share of the entry notional that financing is charged on.
	MarginRate float64 `yaml:"margin_rate" json:"margin_rate" jsonschema:"title=Margin rate,minimum=0,maximum=1" validate:"gte=0,lte=1"`
}

// Validate checks the profile constants.
func (p CostProfile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrapf(errors.ErrCodeCostProfileInvalid, err, "invalid cost profile %q", p.Name)
	}

	return nil
}

// ProfileCommissionFee applies a CostProfile.
type ProfileCommissionFee struct {
	profile CostProfile
}

// NewProfileCommissionFee builds a cost model from profile constants.
func NewProfileCommissionFee(profile CostProfile) CommissionFee {
	return &ProfileCommissionFee{
		profile: profile,
	}
}

func (c *ProfileCommissionFee) Profile() CostProfile {
	return c.profile
}

func (c *ProfileCommissionFee) Calculate(tradeType types.TradeType, quantity float64, price float64, daysHeld int) types.TradeCost {
	quantity = math.Abs(quantity)
	qty := decimal.NewFromFloat(quantity)

	commission := qty.Mul(decimal.NewFromFloat(c.profile.CommissionPerUnit))
	if minimum := decimal.NewFromFloat(c.profile.MinCommission); commission.LessThan(minimum) {
		commission = minimum
	}

	exchangeFee := qty.Mul(decimal.NewFromFloat(c.profile.ExchangeFeePerUnit))
	clearingFee := qty.Mul(decimal.NewFromFloat(c.profile.ClearingFeePerUnit))

	financing := decimal.Zero
	if !tradeType.IsOpen() && daysHeld > 0 {
		financing = qty.Mul(decimal.NewFromFloat(price)).
			Mul(decimal.NewFromFloat(c.profile.MarginRate)).
			Mul(decimal.NewFromFloat(c.profile.OvernightRate)).
			Mul(decimal.NewFromInt(int64(daysHeld)))
	}

	return types.TradeCost{
		Commission:       commission.InexactFloat64(),
		ExchangeFee:      exchangeFee.InexactFloat64(),
		ClearingFee:      clearingFee.InexactFloat64(),
		FinancingAccrued: financing.InexactFloat64(),
	}
}
