package shared

import "github.com/shopspring/decimal"

// Epsilon is the tolerance for balance comparisons.
var Epsilon = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Balanced reports whether |debit - credit| <= Epsilon.
func Balanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThanOrEqual(Epsilon)
}

// Round2 rounds to cents.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// WholeCents reports whether v has at most two decimal places.
func WholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
