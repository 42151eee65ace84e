package pdf

import "math"

const (
	// MillimetersPerInch is the exact length of one inch in millimeters.
	MillimetersPerInch = 25.4
	// PixelsPerInch is the CSS reference pixel density the layout engine assumes.
	PixelsPerInch = 96
)

// MMToPx converts millimeters to CSS pixels at 96 DPI.
// Halves round up, so MMToPx never disagrees with the browser's own rounding
// of the same physical length.
func MMToPx(mm float64) int {
	return roundHalfUp(mm / MillimetersPerInch * PixelsPerInch)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
