package commission_fee

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		daysHeld int
	}{
		{"zero quantity", 0, 0},
		{"small quantity", 10, 3},
		{"large quantity", 10000, 250},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			cost := fee.Calculate(types.TradeTypeSellClose, tc.quantity, 100, tc.daysHeld)
			suite.Equal(0.0, cost.Total())
		})
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{"zero quantity", 0, 1.0},
		{"small quantity - min fee", 10, 1.0},
		{"quantity at threshold", 200, 1.0},
		{"large quantity", 1000, 5.0},
		{"negative quantity uses magnitude", -1000, 5.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			cost := fee.Calculate(types.TradeTypeBuyOpen, tc.quantity, 50, 0)
			suite.InDelta(tc.expected, cost.Commission, 1e-9)
			suite.Equal(0.0, cost.ExchangeFee)
			suite.Equal(0.0, cost.FinancingAccrued)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestCMEOpenHasNoFinancing() {
	cost := NewCMECommissionFee().Calculate(types.TradeTypeBuyOpen, 10, 100, 30)
	suite.InDelta(25.0, cost.Commission, 1e-9)
	suite.InDelta(15.0, cost.ExchangeFee, 1e-9)
	suite.InDelta(5.0, cost.ClearingFee, 1e-9)
	suite.Equal(0.0, cost.FinancingAccrued)
	suite.InDelta(45.0, cost.Total(), 1e-9)
}

func (suite *CommissionFeeTestSuite) TestCMECloseAccruesFinancing() {
	fee := NewCMECommissionFee()

	closing := fee.Calculate(types.TradeTypeSellClose, 10, 100, 30)
	// 10 * 100 notional * 0.05 margin * 0.000137 daily * 30 days
	suite.InDelta(0.2055, closing.FinancingAccrued, 1e-9)

	sameDay := fee.Calculate(types.TradeTypeBuyCover, 10, 100, 0)
	suite.Equal(0.0, sameDay.FinancingAccrued)
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name     string
		broker   Broker
		expected string
	}{
		{name: "cme", broker: BrokerCME, expected: "cme"},
		{name: "interactive broker", broker: BrokerInteractiveBroker, expected: "interactive_broker"},
		{name: "zero commission", broker: BrokerZero, expected: "zero_commission"},
		{name: "unknown broker defaults to zero", broker: Broker("unknown"), expected: "zero_commission"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, GetCommissionFeeHandler(tc.broker).Profile().Name)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestMemoryProfileStore() {
	store := NewMemoryProfileStore()
	suite.Equal([]string{"cme", "interactive_broker", "zero_commission"}, store.List())

	profile, err := store.Get("cme")
	suite.NoError(err)
	suite.Equal(2.50, profile.CommissionPerUnit)

	_, err = store.Get("missing")
	suite.True(errors.HasCode(err, errors.ErrCodeCostProfileNotFound))

	err = store.Put(CostProfile{Name: "bad", CommissionPerUnit: -1})
	suite.True(errors.HasCode(err, errors.ErrCodeCostProfileInvalid))
}

func (suite *CommissionFeeTestSuite) TestLoadProfileStore() {
	path := filepath.Join(suite.T().TempDir(), "profiles.yaml")
	content := `profiles:
  - name: discount
    commission_per_unit: 0.001
    min_commission: 0.35
  - name: cme
    commission_per_unit: 2.0
    exchange_fee_per_unit: 1.5
    clearing_fee_per_unit: 0.5
    overnight_rate: 0.0001
    margin_rate: 0.1
`
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	store, err := LoadProfileStore(path)
	suite.Require().NoError(err)

	discount, err := store.Get("discount")
	suite.NoError(err)
	suite.Equal(0.35, discount.MinCommission)

	cme, err := store.Get("cme")
	suite.NoError(err)
	suite.Equal(2.0, cme.CommissionPerUnit)

	_, err = LoadProfileStore(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
