package services

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// ResolveOrderQty applies supplier lot sizing to a raw requirement.
// The minimum is applied first, then the result is rounded up to the order multiple.
// A multiple of exactly 1 or below zero disables rounding.
func ResolveOrderQty(required, orderMultiple, minimumOrderQty decimal.Decimal) decimal.Decimal {
	if !required.IsPositive() {
		return decimal.Zero
	}
	if minimumOrderQty.IsNegative() {
		minimumOrderQty = decimal.Zero
	}

	qty := required
	if qty.LessThan(minimumOrderQty) {
		qty = minimumOrderQty
	}

	if !orderMultiple.IsPositive() || orderMultiple.Equal(one) {
		return qty
	}

	lots := qty.Div(orderMultiple).Ceil()
	// Div rounds to DivisionPrecision, so guard against a lot short by one
	if lots.Mul(orderMultiple).LessThan(qty) {
		lots = lots.Add(one)
	}
	return lots.Mul(orderMultiple)
}
