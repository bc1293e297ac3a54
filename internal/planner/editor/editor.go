// Package editor drives the shape model and viewport through pointer
// gestures: pan, draft-then-commit creation, calibration and live
// move/resize of existing shapes.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/scene"
	"plan-measure/internal/planner/shape"
)

// ============================================================
// Constants & errors
// ============================================================

const (
	DefaultFitPadding = 40.0
	wheelZoomOut      = 0.9
	wheelZoomIn       = 1.1
	buttonZoomIn      = 1.2
	buttonZoomOut     = 0.8
)

var (
	ErrGestureActive     = errors.New("another gesture is in progress")
	ErrHandleUnavailable = errors.New("handle not available for this shape")
	ErrDraftTooSmall     = errors.New("draft too small to create a shape")
	ErrUnknownMode       = errors.New("unknown mode")
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrInvalidBackground = errors.New("background must have positive dimensions")
)

// ============================================================
// Input
// ============================================================

type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

type TargetKind string

const (
	TargetBackground TargetKind = "background"
	TargetBody       TargetKind = "body"
	TargetHandle     TargetKind = "handle"
)

// Target classifies what the pointer went down on.
type Target struct {
	Kind    TargetKind   `json:"kind"`
	ShapeID string       `json:"shapeId,omitempty"`
	Handle  shape.Handle `json:"handle,omitempty"`
}

// PointerEvent is a pointer sample in screen space, relative to the stage.
// A nil Target lets the editor hit-test the current scene.
type PointerEvent struct {
	Screen geometry.Point
	Button Button
	Target *Target
}

// LengthPrompt asks the user for the real length of a calibration line.
// ok is false when the user cancels.
type LengthPrompt interface {
	PromptLength(pixels float64) (text string, ok bool)
}

type PromptFunc func(pixels float64) (string, bool)

func (f PromptFunc) PromptLength(pixels float64) (string, bool) {
	return f(pixels)
}

// Outcome reports what a pointer-up committed.
type Outcome struct {
	Gesture    GestureKind
	Created    *shape.Shape
	Calibrated bool
	// Err is a recoverable validation error; the state is unchanged by it.
	Err error
}

// ============================================================
// Editor
// ============================================================

type Editor struct {
	state      *State
	prompt     LengthPrompt
	newID      func() string
	logger     *slog.Logger
	padding    float64
	pendingFit bool
}

type Option func(*Editor)

func WithPrompt(p LengthPrompt) Option {
	return func(e *Editor) { e.prompt = p }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

func WithFitPadding(pad float64) Option {
	return func(e *Editor) { e.padding = pad }
}

func New(opts ...Option) *Editor {
	e := &Editor{
		state:   NewState(),
		newID:   uuid.NewString,
		logger:  slog.New(slog.DiscardHandler),
		padding: DefaultFitPadding,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State exposes the owned state for rendering and inspection.
func (e *Editor) State() *State {
	return e.state
}

// ============================================================
// Pointer handling
// ============================================================

// PointerDown starts a gesture. A second pointer-down while one is running
// is rejected and leaves the state untouched.
func (e *Editor) PointerDown(ev PointerEvent) error {
	st := e.state
	if st.Active != nil {
		return ErrGestureActive
	}

	world := geometry.ToWorld(ev.Screen, st.Viewport)

	if st.SpaceHeld || ev.Button == ButtonMiddle {
		e.startPan(ev.Screen)
		return nil
	}

	target := e.HitTest(world)
	if ev.Target != nil {
		target = *ev.Target
	}

	switch ev.Button {
	case ButtonSecondary:
		if target.Kind != TargetBackground {
			st.Shapes.SelectOnly(target.ShapeID)
		}
		return nil
	case ButtonPrimary:
	default:
		return nil
	}

	switch target.Kind {
	case TargetHandle:
		s := st.Shapes.FindByID(target.ShapeID)
		if s == nil {
			return nil
		}
		if !s.HasHandle(target.Handle) {
			return fmt.Errorf("%w: %s on %s", ErrHandleUnavailable, target.Handle, s.Type)
		}
		e.startManipulation(s, target.Handle, world)
		return nil

	case TargetBody:
		if st.Mode == ModeIdle || st.Mode == ModeSelect {
			s := st.Shapes.FindByID(target.ShapeID)
			if s == nil {
				return nil
			}
			st.Shapes.SelectOnly(s.ID)
			e.startManipulation(s, shape.HandleMove, world)
			return nil
		}
	}

	switch st.Mode {
	case ModeCalibrate:
		st.Active = &CalibrationDraft{Start: world, Current: world}
	case ModeSquare:
		st.Active = &BoxDraft{Shape: shape.KindSquare, Start: world, Current: world}
	case ModeRect:
		st.Active = &BoxDraft{Shape: shape.KindRect, Start: world, Current: world}
	default:
		st.Shapes.ClearSelection()
		e.startPan(ev.Screen)
	}
	return nil
}

// PointerMove updates the running gesture. Without one it does nothing.
func (e *Editor) PointerMove(ev PointerEvent) {
	st := e.state
	world := geometry.ToWorld(ev.Screen, st.Viewport)

	switch g := st.Active.(type) {
	case *Pan:
		st.Viewport.X = g.Origin.X + (ev.Screen.X - g.StartScreen.X)
		st.Viewport.Y = g.Origin.Y + (ev.Screen.Y - g.StartScreen.Y)
	case *Manipulation:
		s := st.Shapes.FindByID(g.ShapeID)
		if s == nil {
			return
		}
		s.Apply(g.Handle, g.Baseline, world.X-g.Start.X, world.Y-g.Start.Y)
	case *CalibrationDraft:
		g.Current = world
	case *BoxDraft:
		g.Current = world
	}
}

// PointerUp applies the final sample, commits the gesture and always
// returns the editor to no active gesture.
func (e *Editor) PointerUp(ev PointerEvent) Outcome {
	st := e.state
	if st.Active == nil {
		return Outcome{Gesture: GestureIdle}
	}

	e.PointerMove(ev)
	g := st.Active
	st.Active = nil
	out := Outcome{Gesture: g.Kind()}

	switch g := g.(type) {
	case *BoxDraft:
		r, ok := g.Commit()
		if !ok {
			out.Err = ErrDraftTooSmall
			return out
		}
		created := shape.Shape{
			ID:       e.newID(),
			Type:     g.Shape,
			X:        r.X,
			Y:        r.Y,
			W:        r.W,
			H:        r.H,
			Selected: true,
		}
		st.Shapes.ClearSelection()
		st.Shapes.Add(created)
		st.Mode = ModeIdle
		out.Created = &created
		e.logger.Debug("shape created", "id", created.ID, "type", created.Type, "w", created.W, "h", created.H)

	case *CalibrationDraft:
		out.Calibrated, out.Err = e.calibrate(g.Length())
		st.Mode = ModeIdle
	}
	return out
}

// Cancel aborts the running gesture and puts back whatever it changed.
func (e *Editor) Cancel() {
	st := e.state
	switch g := st.Active.(type) {
	case *Pan:
		st.Viewport.X, st.Viewport.Y = g.Origin.X, g.Origin.Y
	case *Manipulation:
		if s := st.Shapes.FindByID(g.ShapeID); s != nil {
			s.SetBounds(g.Baseline)
		}
	}
	st.Active = nil
}

func (e *Editor) startPan(screen geometry.Point) {
	e.state.Active = &Pan{StartScreen: screen, Origin: e.state.Viewport.Offset()}
}

func (e *Editor) startManipulation(s *shape.Shape, h shape.Handle, world geometry.Point) {
	e.state.Active = &Manipulation{
		Handle:   h,
		ShapeID:  s.ID,
		Start:    world,
		Baseline: s.Bounds(),
	}
}

func (e *Editor) calibrate(pixels float64) (bool, error) {
	if pixels <= calibration.MinPixels {
		return false, calibration.ErrTooShort
	}
	if e.prompt == nil {
		return false, nil
	}

	text, ok := e.prompt.PromptLength(pixels)
	if !ok || text == "" {
		return false, nil
	}

	meters, err := calibration.ParseLength(text)
	if err != nil {
		return false, err
	}
	mpp, err := calibration.ComputeScale(pixels, meters)
	if err != nil {
		return false, err
	}

	e.state.MeterPerPixel = mpp
	e.logger.Info("calibrated", "pixels", pixels, "meters", meters, "meterPerPixel", mpp)
	return true, nil
}

// ============================================================
// Hit testing
// ============================================================

// HitTest classifies a world point: handles of selected shapes first, then
// shape bodies from the topmost down, then background. Handles are tested in
// reverse draw order so the one painted on top wins where radii overlap.
func (e *Editor) HitTest(world geometry.Point) Target {
	st := e.state
	shapes := st.Shapes.All()
	radius := scene.HandleRadius / st.Viewport.Scale

	for i := len(shapes) - 1; i >= 0; i-- {
		s := shapes[i]
		if !s.Selected {
			continue
		}
		handles := s.Handles()
		for j := len(handles) - 1; j >= 0; j-- {
			if hp := handles[j]; hp.At.Distance(world) <= radius {
				return Target{Kind: TargetHandle, ShapeID: s.ID, Handle: hp.Kind}
			}
		}
	}

	for i := len(shapes) - 1; i >= 0; i-- {
		if shapes[i].Bounds().Contains(world) {
			return Target{Kind: TargetBody, ShapeID: shapes[i].ID}
		}
	}

	return Target{Kind: TargetBackground}
}
