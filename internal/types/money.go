// README: Currency helpers shared by pricing and surge.
package types

import "math"

// Round2 rounds v half-up to currency precision (two decimals).
// The small bias absorbs binary representation error, so 6.675 becomes 6.68.
func Round2(v float64) float64 {
	if v < 0 {
		return -Round2(-v)
	}
	return math.Floor(v*100+0.5+1e-9) / 100
}

// CeilCents rounds v up to the next cent. Values already on a cent stay put.
func CeilCents(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}

// FloorCents rounds v down to the previous cent. Values already on a cent stay put.
func FloorCents(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}
