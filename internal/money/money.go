// Package money parses lenient amount input and formats amounts for display.
package money

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/printquote/internal/units"
)

// DefaultSymbol prefixes formatted amounts when no symbol is configured.
const DefaultSymbol = "R$"

// Parse reads an amount that may use ',' as decimal separator.
// Blank or unparseable input yields zero and false.
func Parse(raw string) (decimal.Decimal, bool) {
	return units.ParseDecimal(raw)
}

// Round rounds an amount to cents. Use only at the presentation boundary.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Plain formats an amount with two decimals and thousands separators, e.g. "1,234.50".
func Plain(d decimal.Decimal) string {
	r := Round(d)
	digits := r.Abs().StringFixed(2)
	cents := digits[len(digits)-2:]

	s := humanize.BigComma(r.Abs().Truncate(0).BigInt()) + "." + cents
	if r.IsNegative() {
		return "-" + s
	}
	return s
}

// Format formats an amount with a currency symbol, e.g. "R$ 1,234.50".
func Format(symbol string, d decimal.Decimal) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		symbol = DefaultSymbol
	}
	return symbol + " " + Plain(d)
}
