package player

import "math"

// levelToVolume converts a linear 0.0-1.0 amplitude to beep's Volume value.
// With Base 2 the gain is 2^Volume, so log2(level) scales amplitude linearly:
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2. Zero maps to -10 and callers also set Silent.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}
