package audio

import "math"

// volumeToPower maps a linear 0-1 volume to beep's base-2 exponent scale.
// Unity gain at 1.0; anything at or below 0.01 is silenced via the Silent
// flag instead.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
