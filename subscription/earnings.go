package subscription

import "github.com/shopspring/decimal"

var minorUnitsPerMajor = decimal.NewFromInt(100)

// MinorToMajor converts a provider amount in minor units (cents) to major
// units (dollars).
func MinorToMajor(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(minorUnitsPerMajor)
}

// NetEarnings computes the artist's share of a gross payment expressed in
// minor units: gross * (1 - PlatformFeeRate). Decimal arithmetic throughout,
// so repeated application accumulates no drift.
func NetEarnings(amountPaidMinor int64) decimal.Decimal {
	gross := MinorToMajor(amountPaidMinor)
	return gross.Mul(decimal.NewFromInt(1).Sub(PlatformFeeRate))
}
