package editor

import (
	"fmt"

	"plan-measure/internal/planner/geometry"
)

// ============================================================
// Viewport commands
// ============================================================

// Wheel zooms about the pointer: out for positive deltaY, in otherwise.
func (e *Editor) Wheel(deltaY float64, screen geometry.Point) {
	factor := wheelZoomIn
	if deltaY > 0 {
		factor = wheelZoomOut
	}
	e.state.Viewport = geometry.ZoomAt(e.state.Viewport, factor, screen)
}

func (e *Editor) ZoomIn() {
	e.zoomCentered(buttonZoomIn)
}

func (e *Editor) ZoomOut() {
	e.zoomCentered(buttonZoomOut)
}

func (e *Editor) zoomCentered(factor float64) {
	c := e.state.Container
	anchor := geometry.Point{X: c.Width / 2, Y: c.Height / 2}
	e.state.Viewport = geometry.ZoomAt(e.state.Viewport, factor, anchor)
}

// Fit centers the background in the container. It reports false, changing
// nothing, while the container has no measured size.
func (e *Editor) Fit() bool {
	vp, ok := geometry.FitToContainer(e.state.WorldSize(), e.state.Container, e.padding)
	if !ok {
		return false
	}
	e.state.Viewport = vp
	e.pendingFit = false
	return true
}

// SetContainer records the stage size. A fit skipped earlier because the
// container was unmeasured runs now.
func (e *Editor) SetContainer(size geometry.Size) {
	e.state.Container = size
	if e.pendingFit {
		e.Fit()
	}
}

// ============================================================
// Document commands
// ============================================================

// LoadBackground switches the world to a newly decoded image. Shapes keep
// their world coordinates; the calibration belonged to the previous raster
// and is dropped.
func (e *Editor) LoadBackground(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBackground, width, height)
	}

	e.Cancel()
	e.state.Background = Background{Present: true, Width: float64(width), Height: float64(height)}
	e.state.MeterPerPixel = 0
	if !e.Fit() {
		e.pendingFit = true
	}
	e.logger.Info("background loaded", "width", width, "height", height)
	return nil
}

// DeleteSelected removes the selected shapes and reports how many.
func (e *Editor) DeleteSelected() int {
	return e.state.Shapes.RemoveSelected()
}

// ============================================================
// Modes & intents
// ============================================================

func (e *Editor) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	e.state.Mode = m
	return nil
}

// ToggleMode switches to m, or back to idle when m is already active.
func (e *Editor) ToggleMode(m Mode) error {
	if e.state.Mode == m {
		return e.SetMode(ModeIdle)
	}
	return e.SetMode(m)
}

// Intent is a host-level shortcut, independent of key bindings.
type Intent string

const (
	IntentSquare    Intent = "square"
	IntentRect      Intent = "rect"
	IntentCalibrate Intent = "calibrate"
	IntentDelete    Intent = "delete"
	IntentEscape    Intent = "escape"
	IntentSpaceDown Intent = "space-down"
	IntentSpaceUp   Intent = "space-up"
)

func (e *Editor) Apply(i Intent) error {
	switch i {
	case IntentSquare:
		return e.SetMode(ModeSquare)
	case IntentRect:
		return e.SetMode(ModeRect)
	case IntentCalibrate:
		return e.SetMode(ModeCalibrate)
	case IntentDelete:
		e.DeleteSelected()
	case IntentEscape:
		e.Cancel()
		return e.SetMode(ModeIdle)
	case IntentSpaceDown:
		e.state.SpaceHeld = true
	case IntentSpaceUp:
		e.state.SpaceHeld = false
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, i)
	}
	return nil
}
