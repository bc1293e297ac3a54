package editor

import (
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/shape"
)

// Default world extent before any image is loaded.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ============================================================
// Mode
// ============================================================

// Mode is the persistent tool selection. It decides what a pointer-down on
// empty canvas starts.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeSelect    Mode = "select"
	ModeCalibrate Mode = "calibrate"
	ModeSquare    Mode = "square"
	ModeRect      Mode = "rect"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeIdle, ModeSelect, ModeCalibrate, ModeSquare, ModeRect:
		return true
	}
	return false
}

// Drawing reports whether the mode starts a draft on empty canvas.
func (m Mode) Drawing() bool {
	return m == ModeCalibrate || m == ModeSquare || m == ModeRect
}

// Hint is the instruction shown for the mode.
func (m Mode) Hint() string {
	switch m {
	case ModeCalibrate:
		return "Drag a reference line of known length on the plan."
	case ModeSquare:
		return "Drag to create a square."
	case ModeRect:
		return "Drag to create a rectangle."
	case ModeIdle, ModeSelect:
		return "Drag empty space to pan, scroll to zoom."
	}
	return ""
}

// ============================================================
// State
// ============================================================

type Background struct {
	Present bool    `json:"present"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// State is the whole editing session. It is owned by one Editor and is not
// safe for concurrent use.
type State struct {
	Viewport   geometry.Viewport
	Container  geometry.Size
	Background Background
	Shapes     *shape.Model
	// MeterPerPixel is zero while uncalibrated.
	MeterPerPixel float64
	Mode          Mode
	Active        Gesture
	SpaceHeld     bool
}

func NewState() *State {
	return &State{
		Viewport:   geometry.Identity(),
		Background: Background{Width: DefaultWidth, Height: DefaultHeight},
		Shapes:     shape.NewModel(),
		Mode:       ModeIdle,
	}
}

func (s *State) Calibrated() bool {
	return s.MeterPerPixel > 0
}

// WorldSize is the world extent, which always equals the background size.
func (s *State) WorldSize() geometry.Size {
	return geometry.Size{Width: s.Background.Width, Height: s.Background.Height}
}

// GestureKind names the running gesture, GestureIdle when none.
func (s *State) GestureKind() GestureKind {
	if s.Active == nil {
		return GestureIdle
	}
	return s.Active.Kind()
}
