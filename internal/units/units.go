// Package units provides shared conversion helpers for intensity ratios and
// frame timing
package units

import "math"

// LinearToDb converts a linear intensity ratio to decibels.
// Non-positive inputs are returned unchanged rather than producing -Inf/NaN;
// the device reports sentinel values at or below zero that must survive a
// round trip through the API untouched.
func LinearToDb(x float64) float64 {
	if x <= 0 {
		return x
	}
	return 20 * math.Log10(x)
}

// DbToLinear converts a decibel value to a linear intensity ratio.
func DbToLinear(x float64) float64 {
	return math.Pow(10, x/20)
}

// MicrosToMillis converts a frame period stored in microseconds to
// milliseconds. Device configuration stores periods in µs.
func MicrosToMillis(us int) float64 {
	return float64(us) / 1000
}

// MillisToMicros converts a frame period in milliseconds to the microsecond
// value the device stores.
func MillisToMicros(ms float64) int {
	return int(ms * 1000)
}
