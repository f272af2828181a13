// Package mathutil provides common mathematical utility functions.
package mathutil

import "math"

// RoundHalfUp rounds to the nearest integer with halves going towards
// positive infinity, matching how the dashboard rounds member counts.
func RoundHalfUp(val float64) float64 {
	return math.Floor(val + 0.5)
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Sum adds values left to right.
func Sum(values ...float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
