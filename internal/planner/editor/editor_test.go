package editor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-measure/internal/planner/calibration"
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/shape"
)

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

func primary(x, y float64) PointerEvent {
	return PointerEvent{Screen: pt(x, y), Button: ButtonPrimary}
}

// sequentialIDs returns s1, s2, ... so tests can refer to created shapes.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func answer(text string) LengthPrompt {
	return PromptFunc(func(float64) (string, bool) { return text, text != "" })
}

func newTestEditor(prompt string) *Editor {
	return New(WithPrompt(answer(prompt)), WithIDGenerator(sequentialIDs()))
}

func drag(t *testing.T, e *Editor, from, to geometry.Point) Outcome {
	t.Helper()
	require.NoError(t, e.PointerDown(PointerEvent{Screen: from, Button: ButtonPrimary}))
	e.PointerMove(PointerEvent{Screen: from.Midpoint(to)})
	e.PointerMove(PointerEvent{Screen: to})
	return e.PointerUp(PointerEvent{Screen: to})
}

func TestCalibrateThenDraftSquare(t *testing.T) {
	e := newTestEditor("2m")
	require.NoError(t, e.LoadBackground(800, 600))

	require.NoError(t, e.SetMode(ModeCalibrate))
	out := drag(t, e, pt(0, 0), pt(100, 0))
	require.NoError(t, out.Err)
	assert.True(t, out.Calibrated)
	assert.Equal(t, GestureCalibrationLine, out.Gesture)
	assert.InDelta(t, 0.02, e.State().MeterPerPixel, 1e-12)
	assert.Equal(t, ModeIdle, e.State().Mode)

	require.NoError(t, e.SetMode(ModeSquare))
	out = drag(t, e, pt(0, 0), pt(50, 50))
	require.NotNil(t, out.Created)
	assert.Equal(t, 50.0, out.Created.W)
	assert.Equal(t, 50.0, out.Created.H)
	assert.Equal(t, "1 m", out.Created.Label(e.State().MeterPerPixel))
	assert.True(t, out.Created.Selected)
	assert.Equal(t, ModeIdle, e.State().Mode)
	assert.Nil(t, e.State().Active)
}

func TestResizeSEFromBaseline(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "r", Type: shape.KindRect, X: 100, Y: 100, W: 60, H: 40, Selected: true})

	require.NoError(t, e.PointerDown(primary(160, 140)))
	m, ok := e.State().Active.(*Manipulation)
	require.True(t, ok)
	assert.Equal(t, shape.HandleResizeSE, m.Handle)

	for _, d := range []float64{3, 7, 10} {
		e.PointerMove(primary(160+d, 140+d))
	}
	e.PointerUp(primary(170, 150))

	r := e.State().Shapes.FindByID("r")
	assert.Equal(t, 70.0, r.W)
	assert.Equal(t, 50.0, r.H)
	assert.Equal(t, GestureIdle, e.State().GestureKind())
}

func TestResizeTracksWorldDeltaUnderZoom(t *testing.T) {
	e := newTestEditor("")
	e.State().Viewport = geometry.Viewport{X: 10, Y: 20, Scale: 2}
	e.State().Shapes.Add(shape.Shape{ID: "r", Type: shape.KindRect, X: 0, Y: 0, W: 50, H: 50, Selected: true})

	// e handle at world (50, 25) is screen (110, 70).
	require.NoError(t, e.PointerDown(primary(110, 70)))
	e.PointerUp(primary(130, 70))

	r := e.State().Shapes.FindByID("r")
	assert.Equal(t, 60.0, r.W)
	assert.Equal(t, 50.0, r.H)
}

func TestSquareResizeKeepsSides(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "q", Type: shape.KindSquare, X: 0, Y: 0, W: 40, H: 40, Selected: true})

	require.NoError(t, e.PointerDown(primary(40, 40)))
	for _, p := range []geometry.Point{pt(45, 90), pt(80, 41), pt(-200, -200), pt(41, 60)} {
		e.PointerMove(PointerEvent{Screen: p})
		q := e.State().Shapes.FindByID("q")
		require.Equal(t, q.W, q.H)
		require.GreaterOrEqual(t, q.W, shape.MinSize)
	}
	e.PointerUp(primary(41, 60))
	assert.Equal(t, 60.0, e.State().Shapes.FindByID("q").W)
}

func TestSquareEdgeHandleUnavailable(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "q", Type: shape.KindSquare, W: 40, H: 40, Selected: true})

	err := e.PointerDown(PointerEvent{
		Screen: pt(40, 20),
		Button: ButtonPrimary,
		Target: &Target{Kind: TargetHandle, ShapeID: "q", Handle: shape.HandleResizeE},
	})
	assert.ErrorIs(t, err, ErrHandleUnavailable)
	assert.Nil(t, e.State().Active)
}

func TestBodyDragMovesAndSelects(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, X: 0, Y: 0, W: 100, H: 100, Selected: true})
	e.State().Shapes.Add(shape.Shape{ID: "b", Type: shape.KindRect, X: 200, Y: 0, W: 50, H: 50})

	out := drag(t, e, pt(210, 10), pt(230, 40))
	assert.Equal(t, GestureManipulating, out.Gesture)

	b := e.State().Shapes.FindByID("b")
	assert.True(t, b.Selected)
	assert.False(t, e.State().Shapes.FindByID("a").Selected)
	assert.Equal(t, geometry.Rect{X: 220, Y: 30, W: 50, H: 50}, b.Bounds())
}

func TestBackgroundDragPansAndClearsSelection(t *testing.T) {
	e := newTestEditor("")
	e.State().Viewport = geometry.Viewport{X: 5, Y: 5, Scale: 0.5}
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, W: 10, H: 10, Selected: true})

	out := drag(t, e, pt(300, 300), pt(340, 280))
	assert.Equal(t, GesturePanning, out.Gesture)
	assert.Empty(t, e.State().Shapes.Selected())
	assert.Equal(t, geometry.Viewport{X: 45, Y: -15, Scale: 0.5}, e.State().Viewport)
}

func TestSpaceHeldPansInDrawingMode(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.SetMode(ModeRect))
	require.NoError(t, e.Apply(IntentSpaceDown))

	require.NoError(t, e.PointerDown(primary(10, 10)))
	assert.Equal(t, GesturePanning, e.State().GestureKind())
	e.PointerUp(primary(30, 10))
	assert.Equal(t, 20.0, e.State().Viewport.X)
	assert.Equal(t, 0, e.State().Shapes.Len())

	require.NoError(t, e.Apply(IntentSpaceUp))
	require.NoError(t, e.PointerDown(PointerEvent{Screen: pt(0, 0), Button: ButtonMiddle}))
	assert.Equal(t, GesturePanning, e.State().GestureKind())
}

func TestSecondPointerDownRejected(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.SetMode(ModeRect))
	require.NoError(t, e.PointerDown(primary(0, 0)))
	before := *e.State().Active.(*BoxDraft)

	assert.ErrorIs(t, e.PointerDown(primary(50, 50)), ErrGestureActive)
	assert.Equal(t, before, *e.State().Active.(*BoxDraft))
}

func TestTinyDraftDiscarded(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.SetMode(ModeRect))

	out := drag(t, e, pt(10, 10), pt(14, 15))
	assert.ErrorIs(t, out.Err, ErrDraftTooSmall)
	assert.Nil(t, out.Created)
	assert.Equal(t, 0, e.State().Shapes.Len())
	assert.Equal(t, ModeRect, e.State().Mode)
	assert.Nil(t, e.State().Active)
}

func TestThinDraftFlooredToMinimum(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.SetMode(ModeRect))

	out := drag(t, e, pt(100, 100), pt(20, 102))
	require.NotNil(t, out.Created)
	assert.Equal(t, geometry.Rect{X: 20, Y: 100, W: 80, H: shape.MinSize}, out.Created.Bounds())
}

func TestSquareDraftAnchorsAtStart(t *testing.T) {
	e := newTestEditor("")
	existing := shape.Shape{ID: "old", Type: shape.KindRect, X: 500, Y: 500, W: 10, H: 10, Selected: true}
	e.State().Shapes.Add(existing)
	require.NoError(t, e.SetMode(ModeSquare))

	out := drag(t, e, pt(100, 100), pt(90, 50))
	require.NotNil(t, out.Created)
	assert.Equal(t, geometry.Rect{X: 50, Y: 50, W: 50, H: 50}, out.Created.Bounds())
	assert.Equal(t, "s1", out.Created.ID)

	sel := e.State().Shapes.Selected()
	require.Len(t, sel, 1)
	assert.Equal(t, "s1", sel[0].ID)
}

func TestCalibrationFailures(t *testing.T) {
	e := newTestEditor("abc")
	e.State().MeterPerPixel = 0.5

	require.NoError(t, e.SetMode(ModeCalibrate))
	out := drag(t, e, pt(0, 0), pt(0, 200))
	assert.ErrorIs(t, out.Err, calibration.ErrInvalidLength)
	assert.False(t, out.Calibrated)
	assert.Equal(t, 0.5, e.State().MeterPerPixel)
	assert.Equal(t, ModeIdle, e.State().Mode)

	require.NoError(t, e.SetMode(ModeCalibrate))
	out = drag(t, e, pt(0, 0), pt(3, 3))
	assert.ErrorIs(t, out.Err, calibration.ErrTooShort)
	assert.Equal(t, 0.5, e.State().MeterPerPixel)
	assert.Equal(t, ModeIdle, e.State().Mode)
}

func TestCalibrationCancelledPrompt(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.SetMode(ModeCalibrate))
	out := drag(t, e, pt(0, 0), pt(100, 0))
	assert.NoError(t, out.Err)
	assert.False(t, out.Calibrated)
	assert.False(t, e.State().Calibrated())
	assert.Equal(t, ModeIdle, e.State().Mode)
}

func TestStaleManipulationIsNoop(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, W: 50, H: 50})

	require.NoError(t, e.PointerDown(primary(25, 25)))
	require.NoError(t, e.Apply(IntentDelete))
	assert.Equal(t, 0, e.State().Shapes.Len())

	assert.NotPanics(t, func() {
		e.PointerMove(primary(60, 60))
		e.PointerUp(primary(60, 60))
	})
	assert.Nil(t, e.State().Active)

	err := e.PointerDown(PointerEvent{Screen: pt(0, 0), Target: &Target{Kind: TargetHandle, ShapeID: "a", Handle: shape.HandleMove}})
	assert.NoError(t, err)
	assert.Nil(t, e.State().Active)
}

func TestCancelRestoresBaseline(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, X: 10, Y: 10, W: 50, H: 50})

	require.NoError(t, e.PointerDown(primary(20, 20)))
	e.PointerMove(primary(80, 90))
	require.NoError(t, e.Apply(IntentEscape))

	assert.Equal(t, geometry.Rect{X: 10, Y: 10, W: 50, H: 50}, e.State().Shapes.FindByID("a").Bounds())
	assert.Nil(t, e.State().Active)
	assert.Equal(t, ModeIdle, e.State().Mode)

	require.NoError(t, e.PointerDown(primary(300, 300)))
	e.PointerMove(primary(350, 300))
	e.Cancel()
	assert.Equal(t, geometry.Identity(), e.State().Viewport)
}

func TestSecondaryButtonSelects(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, W: 50, H: 50})

	require.NoError(t, e.PointerDown(PointerEvent{Screen: pt(10, 10), Button: ButtonSecondary}))
	assert.True(t, e.State().Shapes.FindByID("a").Selected)
	assert.Nil(t, e.State().Active)

	assert.Equal(t, 1, e.DeleteSelected())
	assert.Equal(t, 0, e.DeleteSelected())
}

func TestLoadBackgroundDefersFit(t *testing.T) {
	e := newTestEditor("")
	e.State().MeterPerPixel = 0.01
	e.State().Shapes.Add(shape.Shape{ID: "a", Type: shape.KindRect, W: 50, H: 50})

	require.NoError(t, e.LoadBackground(2000, 1000))
	assert.False(t, e.State().Calibrated())
	assert.Equal(t, 1, e.State().Shapes.Len())
	assert.Equal(t, geometry.Identity(), e.State().Viewport)

	e.SetContainer(geometry.Size{Width: 1040, Height: 540})
	assert.InDelta(t, 0.5, e.State().Viewport.Scale, 1e-9)

	assert.ErrorIs(t, e.LoadBackground(0, 10), ErrInvalidBackground)
}

func TestWheelAndButtonZoom(t *testing.T) {
	e := newTestEditor("")
	e.SetContainer(geometry.Size{Width: 400, Height: 300})

	anchor := pt(120, 80)
	before := geometry.ToWorld(anchor, e.State().Viewport)
	e.Wheel(-1, anchor)
	assert.InDelta(t, 1.1, e.State().Viewport.Scale, 1e-9)
	after := geometry.ToWorld(anchor, e.State().Viewport)
	assert.InDelta(t, before.X, after.X, 1e-9)

	e.Wheel(3, anchor)
	assert.InDelta(t, 0.99, e.State().Viewport.Scale, 1e-9)

	e.ZoomIn()
	assert.InDelta(t, 1.188, e.State().Viewport.Scale, 1e-9)
	e.ZoomOut()
	assert.InDelta(t, 0.9504, e.State().Viewport.Scale, 1e-9)
}

func TestModes(t *testing.T) {
	e := newTestEditor("")
	require.NoError(t, e.ToggleMode(ModeSquare))
	assert.Equal(t, ModeSquare, e.State().Mode)
	require.NoError(t, e.ToggleMode(ModeSquare))
	assert.Equal(t, ModeIdle, e.State().Mode)

	assert.ErrorIs(t, e.SetMode("lasso"), ErrUnknownMode)
	assert.ErrorIs(t, e.Apply("jump"), ErrUnknownIntent)

	require.NoError(t, e.Apply(IntentCalibrate))
	assert.Equal(t, ModeCalibrate, e.State().Mode)
	assert.NotEmpty(t, e.State().Mode.Hint())
}

func TestHitTest(t *testing.T) {
	e := newTestEditor("")
	e.State().Shapes.Add(shape.Shape{ID: "under", Type: shape.KindRect, X: 0, Y: 0, W: 100, H: 100})
	e.State().Shapes.Add(shape.Shape{ID: "over", Type: shape.KindRect, X: 50, Y: 50, W: 100, H: 100, Selected: true})

	assert.Equal(t, Target{Kind: TargetBody, ShapeID: "over"}, e.HitTest(pt(60, 60)))
	assert.Equal(t, Target{Kind: TargetBody, ShapeID: "under"}, e.HitTest(pt(10, 10)))
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "over", Handle: shape.HandleResizeSE}, e.HitTest(pt(152, 148)))
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "over", Handle: shape.HandleMove}, e.HitTest(pt(100, 100)))
	assert.Equal(t, Target{Kind: TargetBackground}, e.HitTest(pt(400, 400)))
}

func TestHitTestPrefersTopmostHandleWhenZoomedOut(t *testing.T) {
	e := newTestEditor("")
	e.State().Viewport = geometry.Viewport{Scale: 0.1}
	e.State().Shapes.Add(shape.Shape{ID: "r", Type: shape.KindRect, X: 0, Y: 0, W: 60, H: 60, Selected: true})

	// At scale 0.1 every handle radius spans 50 world units and covers the whole shape.
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "r", Handle: shape.HandleMove}, e.HitTest(pt(30, 30)))
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "r", Handle: shape.HandleMove}, e.HitTest(pt(60, 60)))

	e.State().Viewport = geometry.Identity()
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "r", Handle: shape.HandleResizeSE}, e.HitTest(pt(60, 60)))
	assert.Equal(t, Target{Kind: TargetHandle, ShapeID: "r", Handle: shape.HandleResizeE}, e.HitTest(pt(60, 30)))
}
