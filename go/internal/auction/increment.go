package auction

import "github.com/shopspring/decimal"

var (
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
	five = decimal.NewFromInt(5)

	step05 = decimal.RequireFromString("0.05")
	step10 = decimal.RequireFromString("0.10")
	step20 = decimal.RequireFromString("0.20")
	step25 = decimal.RequireFromString("0.25")
)

// Increment is the fixed raise for a lot currently standing at bid.
func Increment(bid decimal.Decimal) decimal.Decimal {
	switch {
	case bid.LessThan(one):
		return step05
	case bid.LessThan(two):
		return step10
	case bid.LessThan(five):
		return step20
	default:
		return step25
	}
}

// RequiredBid is the only amount the next bid may carry. The opening bid is the
// base price itself.
func RequiredBid(current decimal.Decimal, hasBidder bool) decimal.Decimal {
	if !hasBidder {
		return current
	}
	return current.Add(Increment(current))
}
