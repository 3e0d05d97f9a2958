package summary

import "math"

// roundUSD rounds a dollar amount to cents.
func roundUSD(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundRatio rounds a dimensionless ratio to 4 decimal places.
func roundRatio(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// safeDiv guards a ratio against division by zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
