package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Percent returns part/total*100 rounded to two decimals. A zero total
// yields 0, never NaN or Inf.
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return RoundFloat(part/total*100, 2)
}

// MinInt returns the smaller of two integers.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
