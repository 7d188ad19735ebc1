package commission_fee

import "github.com/rxtech-lab/argo-backtest/internal/types"

// CommissionFee is the cost model applied on every open and close transition.
type CommissionFee interface {
	// Calculate returns the costs of one transition. daysHeld is only used by
	// closing trades and is the number of overnight periods the position was held.
	Calculate(tradeType types.TradeType, quantity float64, price float64, daysHeld int) types.TradeCost
	// Profile returns the constants the model was built from.
	Profile() CostProfile
}

type Broker string

const (
	BrokerCME               Broker = "cme"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerCME,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the built-in cost model of a broker.
// Unknown brokers fall back to zero commission.
func GetCommissionFeeHandler(broker Broker) CommissionFee {
	switch broker {
	case BrokerCME:
		return NewCMECommissionFee()
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
