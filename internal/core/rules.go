package core

import "github.com/shopspring/decimal"

// RoundPrice rounds half away from zero to the pair's price precision.
func RoundPrice(price decimal.Decimal, precision int32) decimal.Decimal {
	return price.Round(precision)
}

// FloorToStep floors value to the nearest multiple of step. Never rounds up,
// so the normalized quantity can always be afforded.
func FloorToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Cmp(decimal.Zero) <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// Normalize applies exchange formatting to a candidate order: price rounded
// to the pair precision, quantity floored to the lot step.
func (c Constraints) Normalize(price, qty decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return RoundPrice(price, c.PricePrecision), FloorToStep(qty, c.LotSize)
}
