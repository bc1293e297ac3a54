package shape

import (
	"fmt"
	"math"

	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/geometry"
)

// MinSize is the smallest width or height a shape may have, in world units.
const MinSize = 5.0

// ============================================================
// Types
// ============================================================

type Kind string

const (
	KindSquare Kind = "square"
	KindRect   Kind = "rect"
)

func (k Kind) Valid() bool {
	return k == KindSquare || k == KindRect
}

// Handle names a manipulation affordance on a shape.
type Handle string

const (
	HandleMove     Handle = "move"
	HandleResizeSE Handle = "se"
	HandleResizeE  Handle = "e"
	HandleResizeS  Handle = "s"
)

func (h Handle) Valid() bool {
	switch h {
	case HandleMove, HandleResizeSE, HandleResizeE, HandleResizeS:
		return true
	}
	return false
}

type Shape struct {
	ID       string  `json:"id"`
	Type     Kind    `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Selected bool    `json:"selected"`
}

// HandlePoint is a handle together with its world position.
type HandlePoint struct {
	Kind Handle         `json:"kind"`
	At   geometry.Point `json:"at"`
}

// ============================================================
// Geometry
// ============================================================

func (s Shape) Bounds() geometry.Rect {
	return geometry.Rect{X: s.X, Y: s.Y, W: s.W, H: s.H}
}

// Handles lists the handles exposed for the shape, resize handles first.
// Squares only expose the corner handle; edge handles would break w == h.
func (s Shape) Handles() []HandlePoint {
	out := []HandlePoint{{Kind: HandleResizeSE, At: geometry.Point{X: s.X + s.W, Y: s.Y + s.H}}}
	if s.Type != KindSquare {
		out = append(out,
			HandlePoint{Kind: HandleResizeS, At: geometry.Point{X: s.X + s.W/2, Y: s.Y + s.H}},
			HandlePoint{Kind: HandleResizeE, At: geometry.Point{X: s.X + s.W, Y: s.Y + s.H/2}},
		)
	}
	return append(out, HandlePoint{Kind: HandleMove, At: s.Bounds().Center()})
}

// HasHandle reports whether h is exposed for the shape.
func (s Shape) HasHandle(h Handle) bool {
	for _, hp := range s.Handles() {
		if hp.Kind == h {
			return true
		}
	}
	return false
}

// Apply recomputes geometry from a pre-gesture baseline plus a world-space
// delta. It never accumulates, so repeated calls with growing deltas do not drift.
func (s *Shape) Apply(h Handle, baseline geometry.Rect, dx, dy float64) {
	switch h {
	case HandleMove:
		s.X = baseline.X + dx
		s.Y = baseline.Y + dy
	case HandleResizeSE:
		s.resize(baseline.W+dx, baseline.H+dy)
	case HandleResizeE:
		s.resize(baseline.W+dx, baseline.H)
	case HandleResizeS:
		s.resize(baseline.W, baseline.H+dy)
	}
}

// SetBounds restores geometry, keeping the square invariant.
func (s *Shape) SetBounds(r geometry.Rect) {
	s.X, s.Y = r.X, r.Y
	s.resize(r.W, r.H)
}

func (s *Shape) resize(w, h float64) {
	w = math.Max(MinSize, w)
	h = math.Max(MinSize, h)
	if s.Type == KindSquare {
		side := math.Max(w, h)
		w, h = side, side
	}
	s.W, s.H = w, h
}

// ============================================================
// Presentation
// ============================================================

// Label is the dimension text shown above the shape.
func (s Shape) Label(meterPerPixel float64) string {
	if meterPerPixel <= 0 {
		return fmt.Sprintf("%d x %d", int(math.Round(s.W)), int(math.Round(s.H)))
	}

	wm := calibration.FormatBest(s.W * meterPerPixel)
	if s.Type == KindSquare {
		return wm
	}
	hm := calibration.FormatBest(s.H * meterPerPixel)
	return wm + " x " + hm
}

// Area is the calibrated floor area, or an empty string when uncalibrated.
func (s Shape) Area(meterPerPixel float64) string {
	if meterPerPixel <= 0 {
		return ""
	}
	m2 := s.W * meterPerPixel * s.H * meterPerPixel
	return fmt.Sprintf("%.2f m²", m2)
}
