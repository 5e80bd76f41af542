// Package format renders amounts for people. Nothing in the analysis core uses it.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	crore    = decimal.NewFromInt(10000000)
	lakh     = decimal.NewFromInt(100000)
	thousand = decimal.NewFromInt(1000)
)

// Rupees abbreviates an amount with Indian units: Cr, L and K, one decimal place.
// Amounts under a thousand are printed whole with digit grouping.
func Rupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	switch {
	case amount.GreaterThanOrEqual(crore):
		return fmt.Sprintf("%s₹%sCr", sign, amount.Div(crore).StringFixed(1))
	case amount.GreaterThanOrEqual(lakh):
		return fmt.Sprintf("%s₹%sL", sign, amount.Div(lakh).StringFixed(1))
	case amount.GreaterThanOrEqual(thousand):
		return fmt.Sprintf("%s₹%sK", sign, amount.Div(thousand).StringFixed(1))
	default:
		return sign + "₹" + Grouped(amount.Round(0))
	}
}

// RupeesFloat is Rupees for float64 report values.
func RupeesFloat(amount float64) string {
	return Rupees(decimal.NewFromFloat(amount))
}

// Grouped prints an amount with English digit grouping and at most two decimals.
func Grouped(amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	whole := amount.Truncate(0)
	out := p.Sprintf("%d", whole.IntPart())
	if frac := amount.Sub(whole).Abs(); !frac.IsZero() {
		out += strings.TrimPrefix(frac.StringFixed(2), "0")
	}
	return out
}

// Percent prints a fraction in [0, 1] as a percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
