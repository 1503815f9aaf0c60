// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
	"strconv"

	"github.com/iwvelando/cpi-calculator/pkg/constants"
)

// Round rounds a value to two decimals, half away from zero.
// Used for display and for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// FormatFixed renders a value rounded to exactly two decimals. A value that
// rounds to zero is printed without a sign.
func FormatFixed(val float64) string {
	rounded := Round(val)
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', 2, 64)
}

// PercentChange returns the relative change from start to end in percent.
// Division by zero is not guarded: the result is Inf or NaN.
func PercentChange(start, end float64) float64 {
	return (end/start - 1) * constants.PercentageMultiplier
}
