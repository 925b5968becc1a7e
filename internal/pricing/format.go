package pricing

import "github.com/shopspring/decimal"

var smallAmountThreshold = decimal.RequireFromString("0.0001")

// FormatNative renders a native-token amount for display. Amounts at or
// above 0.0001 use exactly 4 decimal places; smaller non-zero amounts use
// 3 significant digits so they never display as "0.0000".
func FormatNative(amount decimal.Decimal) string {
	if amount.IsZero() {
		return "0.0000"
	}
	if amount.Abs().GreaterThanOrEqual(smallAmountThreshold) {
		return amount.StringFixed(4)
	}
	return formatSignificant(amount, 3)
}

// FormatUSD renders a USD amount with 2 decimal places.
func FormatUSD(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func formatSignificant(amount decimal.Decimal, digits int32) string {
	abs := amount.Abs()
	// exponent of the leading significant digit, e.g. 0.000012345 -> -5
	exp := int32(0)
	one := decimal.New(1, 0)
	for abs.LessThan(one) {
		abs = abs.Shift(1)
		exp--
	}
	round := -exp + digits - 1
	return amount.Round(round).StringFixed(round)
}
