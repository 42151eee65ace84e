package pdf

import (
	"fmt"
	"math"
)

// Margins are the page margins in millimeters.
type Margins struct {
	Top    float64 `json:"top" validate:"gte=0"`
	Right  float64 `json:"right" validate:"gte=0"`
	Bottom float64 `json:"bottom" validate:"gte=0"`
	Left   float64 `json:"left" validate:"gte=0"`
}

// PageConfig is the physical page geometry of a render request, in millimeters.
type PageConfig struct {
	WidthMM  float64 `json:"widthMm" validate:"gt=0"`
	HeightMM float64 `json:"heightMm" validate:"gt=0"`
	Margins  Margins `json:"margenes"`
}

// Validate checks the geometry. A margin pair that swallows the whole page is
// rejected rather than clamped.
func (p PageConfig) Validate() error {
	for name, v := range map[string]float64{
		"widthMm":  p.WidthMM,
		"heightMm": p.HeightMM,
		"top":      p.Margins.Top,
		"right":    p.Margins.Right,
		"bottom":   p.Margins.Bottom,
		"left":     p.Margins.Left,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidPageConfig, name)
		}
	}

	if p.WidthMM <= 0 || p.HeightMM <= 0 {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidPageConfig)
	}
	m := p.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: margins must not be negative", ErrInvalidPageConfig)
	}
	if m.Left+m.Right >= p.WidthMM {
		return fmt.Errorf("%w: left and right margins (%gmm) leave no content width on a %gmm page",
			ErrInvalidPageConfig, m.Left+m.Right, p.WidthMM)
	}
	if m.Top+m.Bottom >= p.HeightMM {
		return fmt.Errorf("%w: top and bottom margins (%gmm) leave no content height on a %gmm page",
			ErrInvalidPageConfig, m.Top+m.Bottom, p.HeightMM)
	}
	if p.ContentWidthPx() <= 0 {
		return fmt.Errorf("%w: content width rounds to zero pixels", ErrInvalidPageConfig)
	}
	return nil
}

// PageWidthPx is the full page width in CSS pixels.
func (p PageConfig) PageWidthPx() int {
	return MMToPx(p.WidthMM)
}

// PageHeightPx is the full page height in CSS pixels.
func (p PageConfig) PageHeightPx() int {
	return MMToPx(p.HeightMM)
}

// ContentWidthPx is the width between the left and right margins. It is the
// viewport width used for rendering. Each margin is rounded on its own, so A4
// with 20mm margins gives 794 - 76 - 76 = 642, one pixel less than rounding
// the summed margins (794 - 151 = 643).
func (p PageConfig) ContentWidthPx() int {
	return MMToPx(p.WidthMM) - MMToPx(p.Margins.Left) - MMToPx(p.Margins.Right)
}
