// Package money holds minor-unit (cent) arithmetic shared by cart, checkout and orders.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyRate returns round(amount × rate) in minor units, halves rounded away from zero.
func ApplyRate(amountCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amountCents).Mul(rate).Round(0).IntPart()
}

// Percent returns round(amount × percent / 100) in minor units.
func Percent(amountCents int64, percent int) int64 {
	if percent <= 0 {
		return 0
	}
	return ApplyRate(amountCents, decimal.NewFromInt(int64(percent)).Div(hundred))
}

// Format renders minor units as a dollar label such as "$29.68".
func Format(amountCents int64) string {
	value := decimal.NewFromInt(amountCents).Shift(-2)
	if value.IsNegative() {
		return "-$" + value.Neg().StringFixed(2)
	}
	return "$" + value.StringFixed(2)
}
