package formulas

import "math"

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Round2 rounds to 2 decimal places (monetary presentation only;
// intermediate pricing math is never rounded).
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round4 rounds to 4 decimal places (breakdown ratios)
func Round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// IsFinite reports whether f is a usable number (not NaN, not Inf).
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
