package commission_fee

// InteractiveBrokerProfile charges 0.005 per share with a 1.00 minimum.
func InteractiveBrokerProfile() CostProfile {
	return CostProfile{
		Name:               string(BrokerInteractiveBroker),
		CommissionPerUnit:  0.005,
		MinCommission:      1.0,
		ExchangeFeePerUnit: 0,
		ClearingFeePerUnit: 0,
		OvernightRate:      0,
		MarginRate:         0,
	}
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return NewProfileCommissionFee(InteractiveBrokerProfile())
}
