package engine

// FeeModel computes the cost of a trade from its notional amount.
// Rates follow A-share conventions: a proportional commission with a
// floor, plus stamp tax on the sell side only.
type FeeModel struct {
	CommissionRate float64
	MinCommission  float64
	StampTaxRate   float64
}

func DefaultFees() FeeModel {
	return FeeModel{
		CommissionRate: 0.0003,
		MinCommission:  5,
		StampTaxRate:   0.001,
	}
}

// Commission returns the total fee charged for a trade of the given
// notional. Negative or non-finite notional is a caller bug; it is the
// caller's job to never pass one.
func (f FeeModel) Commission(notional float64, isSell bool) float64 {
	c := notional * f.CommissionRate
	if c < f.MinCommission {
		c = f.MinCommission
	}
	if isSell {
		c += notional * f.StampTaxRate
	}
	return c
}
