package format

import (
	"math"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"Small positive", 12.5, "$12.50"},
		{"Thousands", 1234.567, "$1,234.57"},
		{"Millions negative", -1234567.891, "-$1,234,567.89"},
		{"Zero", 0, "$0.00"},
		{"NaN", math.NaN(), NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.input); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAccounting(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"Positive", 51045, "$51,045"},
		{"Negative in parentheses", -98900.4, "($98,900)"},
		{"Rounds to zero", -0.2, "$0"},
		{"Infinity", math.Inf(1), NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accounting(tt.input); got != tt.expected {
				t.Errorf("Accounting(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPercentAndHours(t *testing.T) {
	if got := Percent(0.1234); got != "12.3%" {
		t.Errorf("Percent() = %q", got)
	}
	if got := Percent(math.NaN()); got != NotAvailable {
		t.Errorf("Percent(NaN) = %q", got)
	}
	if got := Hours(717.4); got != "717 hrs" {
		t.Errorf("Hours() = %q", got)
	}
}
