package scene

import (
	"plan-measure/internal/planner/shape"
)

// ============================================================
// Scene description
// ============================================================

// Scene is an immutable, render-ready description of the overlay in world
// coordinates. It carries no drawing API state; the SVG serializer and the
// export rasterizer both consume it.
type Scene struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Groups []Group `json:"groups"`
	Draft  *Draft  `json:"draft,omitempty"`
}

// Group is one shape: body, label, and handles when selected.
type Group struct {
	ID        string     `json:"id"`
	ShapeKind shape.Kind `json:"shapeKind"`
	Body      Rect       `json:"body"`
	Label     Text       `json:"label"`
	Handles   []Circle   `json:"handles,omitempty"`
}

type DraftKind string

const (
	DraftCalibration DraftKind = "calibration"
	DraftBox         DraftKind = "box"
)

// Draft is the in-progress gesture preview. Line and Label are set for
// calibration drafts, Box for square/rect drafts.
type Draft struct {
	Kind  DraftKind `json:"kind"`
	Line  *Line     `json:"line,omitempty"`
	Label *Text     `json:"label,omitempty"`
	Box   *Rect     `json:"box,omitempty"`
}

type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Class       Class   `json:"class"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type Line struct {
	X1          float64   `json:"x1"`
	Y1          float64   `json:"y1"`
	X2          float64   `json:"x2"`
	Y2          float64   `json:"y2"`
	Class       Class     `json:"class"`
	StrokeWidth float64   `json:"strokeWidth"`
	Dash        []float64 `json:"dash,omitempty"`
}

type Circle struct {
	CX          float64      `json:"cx"`
	CY          float64      `json:"cy"`
	R           float64      `json:"r"`
	Class       Class        `json:"class"`
	StrokeWidth float64      `json:"strokeWidth"`
	Handle      shape.Handle `json:"handle"`
	ShapeID     string       `json:"shapeId"`
}

// Text is anchored at its horizontal middle; Y is the baseline.
type Text struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Content     string  `json:"content"`
	Class       Class   `json:"class"`
	FontSize    float64 `json:"fontSize"`
	StrokeWidth float64 `json:"strokeWidth"`
}
