package commission_fee

// CMEProfile is the futures cost profile: per contract commission, exchange and
// clearing fees on each transition, plus overnight financing of about 5% a year
// on a 5% margin.
func CMEProfile() CostProfile {
	return CostProfile{
		Name:               string(BrokerCME),
		CommissionPerUnit:  2.50,
		MinCommission:      0,
		ExchangeFeePerUnit: 1.50,
		ClearingFeePerUnit: 0.50,
		OvernightRate:      0.000137,
		MarginRate:         0.05,
	}
}

func NewCMECommissionFee() CommissionFee {
	return NewProfileCommissionFee(CMEProfile())
}
