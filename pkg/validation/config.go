// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"math"
)

// ValidateFraction warns when a value meant as a share lies outside [0, 1].
// The value is still used as given.
func ValidateFraction(name string, value float64) string {
	if value < 0 || value > 1 {
		return fmt.Sprintf("Assumption '%s' is %g, expected a fraction between 0 and 1 (e.g. 0.15 for 15%%)", name, value)
	}
	return ""
}

// ValidateNonNegative warns when an amount or count is negative.
func ValidateNonNegative(name string, value float64) string {
	if value < 0 {
		return fmt.Sprintf("Assumption '%s' is negative (%g)", name, value)
	}
	return ""
}

// FieldValue is one assumption as seen by the validator.
type FieldValue struct {
	Name     string
	Value    float64
	Fraction bool
}

// AssumptionValidator checks a resolved assumption set and the raw keys it was
// built from.
type AssumptionValidator struct {
	Fields      []FieldValue
	UnknownKeys []string
}

// ValidateAll returns advisory warnings. It never rejects a configuration.
func (av *AssumptionValidator) ValidateAll() []string {
	var warnings []string

	for _, key := range av.UnknownKeys {
		warnings = append(warnings, fmt.Sprintf("Unknown assumption '%s' ignored", key))
	}

	for _, f := range av.Fields {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			warnings = append(warnings, fmt.Sprintf("Assumption '%s' is not a finite number", f.Name))
			continue
		}
		var warning string
		if f.Fraction {
			warning = ValidateFraction(f.Name, f.Value)
		} else {
			warning = ValidateNonNegative(f.Name, f.Value)
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
