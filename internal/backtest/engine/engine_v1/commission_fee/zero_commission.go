package commission_fee

// ZeroProfile charges nothing.
func ZeroProfile() CostProfile {
	return CostProfile{
		Name:               string(BrokerZero),
		CommissionPerUnit:  0,
		MinCommission:      0,
		ExchangeFeePerUnit: 0,
		ClearingFeePerUnit: 0,
		OvernightRate:      0,
		MarginRate:         0,
	}
}

// NewZeroCommissionFee creates a cost model that always returns zero costs.
func NewZeroCommissionFee() CommissionFee {
	return NewProfileCommissionFee(ZeroProfile())
}
