// Package format renders projection values for people.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/studio-forecast/pkg/mathutil"
)

// NotAvailable is shown in place of values that are NaN or infinite.
const NotAvailable = "N/A"

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return NotAvailable
	}
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Accounting returns whole dollars with negatives in parentheses (e.g., "($1,235)").
func Accounting(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return NotAvailable
	}
	formatted := "$" + formatPositive(math.Abs(amount), 0)
	if amount < 0 && formatted != "$0" {
		return "(" + formatted + ")"
	}
	return formatted
}

// Percent renders a fraction with one decimal (0.1234 -> "12.3%").
func Percent(fraction float64) string {
	if !mathutil.IsFinite(fraction) {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// Hours renders a whole number of hours.
func Hours(value float64) string {
	if !mathutil.IsFinite(value) {
		return NotAvailable
	}
	return fmt.Sprintf("%.0f hrs", value)
}

func formatPositive(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := ""
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

	if decPart == "" {
		return intPart
	}
	return intPart + "." + decPart
}
