// Package format renders balances for display.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tpma1205/lifecycle-index-sim/pkg/constants"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + formatted
	}
	return formatted
}

// Unit describes the display unit chosen for a series of balances.
type Unit struct {
	Divisor float64
	Suffix  string
}

var (
	// BaseUnit displays balances as entered.
	BaseUnit = Unit{Divisor: 1}
	// LargeUnit displays balances in ten-thousands.
	LargeUnit = Unit{Divisor: constants.LargeUnitDivisor, Suffix: "x10k"}
)

// ChooseUnit switches to LargeUnit once the largest balance reaches the
// large-unit threshold.
func ChooseUnit(maxBalance float64) Unit {
	if math.Abs(maxBalance) >= constants.LargeUnitThreshold {
		return LargeUnit
	}
	return BaseUnit
}

// Scaled renders amount in unit u with two decimals and the unit suffix.
func (u Unit) Scaled(amount float64) string {
	s := NumericCurrency(amount / u.Divisor)
	if u.Suffix == "" {
		return s
	}
	return s + " " + u.Suffix
}

func formatPositiveCurrency(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "n/a"
	}
	formatted := decimal.NewFromFloat(value).StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
