package utils

import "math"

// IsFinite reports whether v is a real number (not NaN and not an infinity).
// In the fina format NaN encodes "no reading", so most statistics skip
// non-finite samples.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundTo rounds v to the given number of decimal places.
// Negative decimals round to powers of ten (RoundTo(1234, -2) == 1200).
// Non-finite values pass through unchanged.
func RoundTo(v float64, decimals int) float64 {
	if !IsFinite(v) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
