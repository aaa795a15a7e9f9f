package booking

import "math"

// Charges is the server-side price breakdown of a booking.
type Charges struct {
	Base  float64
	Rate  float64
	Tax   float64
	Total float64
}

// ComputeCharges applies GST at rate percent to base. Tax is rounded to two
// decimals and the total is base plus the rounded tax.
func ComputeCharges(base, rate float64) Charges {
	tax := roundMoney(base * rate / 100)
	return Charges{
		Base:  roundMoney(base),
		Rate:  rate,
		Tax:   tax,
		Total: roundMoney(base + tax),
	}
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
