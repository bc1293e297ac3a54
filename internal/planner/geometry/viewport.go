package geometry

import (
	"math"
)

// ============================================================
// Viewport
// ============================================================

const (
	MinScale = 0.05
	MaxScale = 10.0
)

// Viewport maps world space to screen space: screen = world*Scale + (X, Y).
type Viewport struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Identity is the viewport where screen and world coincide.
func Identity() Viewport {
	return Viewport{Scale: 1}
}

// Offset returns the translation part of the viewport.
func (v Viewport) Offset() Point {
	return Point{X: v.X, Y: v.Y}
}

// ZoomPercent is the zoom readout shown to the user.
func (v Viewport) ZoomPercent() int {
	return int(math.Round(v.Scale * 100))
}

// ToScreen applies the forward transform.
func ToScreen(p Point, v Viewport) Point {
	return Point{X: p.X*v.Scale + v.X, Y: p.Y*v.Scale + v.Y}
}

// ToWorld is the exact inverse of ToScreen.
func ToWorld(p Point, v Viewport) Point {
	return Point{X: (p.X - v.X) / v.Scale, Y: (p.Y - v.Y) / v.Scale}
}

// ZoomAt scales the viewport by factor while keeping the world point under
// anchor (a screen point) fixed.
func ZoomAt(v Viewport, factor float64, anchor Point) Viewport {
	oldScale := v.Scale
	newScale := Clamp(oldScale*factor, MinScale, MaxScale)

	return Viewport{
		X:     anchor.X - ((anchor.X-v.X)/oldScale)*newScale,
		Y:     anchor.Y - ((anchor.Y-v.Y)/oldScale)*newScale,
		Scale: newScale,
	}
}

// FitToContainer centers the background inside the container, never zooming
// past 100%. ok is false when the container has not been measured yet.
func FitToContainer(bg, container Size, padding float64) (Viewport, bool) {
	if container.Empty() || bg.Empty() {
		return Viewport{}, false
	}

	scale := math.Min((container.Width-padding)/bg.Width, (container.Height-padding)/bg.Height)
	scale = math.Min(1, scale)
	if scale <= 0 {
		return Viewport{}, false
	}
	scale = Clamp(scale, MinScale, MaxScale)

	return Viewport{
		X:     (container.Width - bg.Width*scale) / 2,
		Y:     (container.Height - bg.Height*scale) / 2,
		Scale: scale,
	}, true
}
