package editor

import (
	"math"

	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/shape"
)

// ============================================================
// Gestures
// ============================================================

type GestureKind string

const (
	GestureIdle            GestureKind = "idle"
	GesturePanning         GestureKind = "panning"
	GestureCalibrationLine GestureKind = "drafting-calibration-line"
	GestureSquare          GestureKind = "drafting-square"
	GestureRect            GestureKind = "drafting-rect"
	GestureManipulating    GestureKind = "manipulating-shape"
)

// Gesture is the in-progress interaction between a pointer-down and the
// matching pointer-up. Exactly one of the concrete types below.
type Gesture interface {
	Kind() GestureKind
}

// Pan drags the viewport by raw screen deltas.
type Pan struct {
	StartScreen geometry.Point
	Origin      geometry.Point
}

func (*Pan) Kind() GestureKind { return GesturePanning }

// CalibrationDraft is a reference line in world coordinates.
type CalibrationDraft struct {
	Start   geometry.Point
	Current geometry.Point
}

func (*CalibrationDraft) Kind() GestureKind { return GestureCalibrationLine }

// Length is the line length in world pixels.
func (d *CalibrationDraft) Length() float64 {
	return d.Start.Distance(d.Current)
}

// BoxDraft previews a square or rect being dragged out.
type BoxDraft struct {
	Shape   shape.Kind
	Start   geometry.Point
	Current geometry.Point
}

func (d *BoxDraft) Kind() GestureKind {
	if d.Shape == shape.KindSquare {
		return GestureSquare
	}
	return GestureRect
}

// Rect is the box as currently dragged, without the minimum size applied.
func (d *BoxDraft) Rect() geometry.Rect {
	w := math.Abs(d.Current.X - d.Start.X)
	h := math.Abs(d.Current.Y - d.Start.Y)
	return d.anchor(w, h)
}

// Commit returns the shape bounds for a finished drag. ok is false when the
// drag stayed within the minimum size on both axes.
func (d *BoxDraft) Commit() (geometry.Rect, bool) {
	w := math.Abs(d.Current.X - d.Start.X)
	h := math.Abs(d.Current.Y - d.Start.Y)
	if w <= shape.MinSize && h <= shape.MinSize {
		return geometry.Rect{}, false
	}
	return d.anchor(math.Max(w, shape.MinSize), math.Max(h, shape.MinSize)), true
}

// anchor keeps the start corner fixed and grows the box toward the pointer.
// Squares take the dominant dimension.
func (d *BoxDraft) anchor(w, h float64) geometry.Rect {
	if d.Shape == shape.KindSquare {
		side := math.Max(w, h)
		w, h = side, side
	}
	x, y := d.Start.X, d.Start.Y
	if d.Current.X < d.Start.X {
		x -= w
	}
	if d.Current.Y < d.Start.Y {
		y -= h
	}
	return geometry.Rect{X: x, Y: y, W: w, H: h}
}

// Manipulation moves or resizes an existing shape. Geometry is always
// recomputed from Baseline and the delta to Start.
type Manipulation struct {
	Handle   shape.Handle
	ShapeID  string
	Start    geometry.Point
	Baseline geometry.Rect
}

func (*Manipulation) Kind() GestureKind { return GestureManipulating }
