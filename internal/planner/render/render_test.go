package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/scene"
	"plan-measure/internal/planner/shape"
)

func testState() *editor.State {
	st := editor.NewState()
	st.Background = editor.Background{Present: true, Width: 1000, Height: 800}
	st.Viewport = geometry.Viewport{X: 30, Y: 10, Scale: 2}
	st.MeterPerPixel = 0.02
	st.Shapes.Add(shape.Shape{ID: "a", Type: shape.KindSquare, X: 10, Y: 20, W: 50, H: 50})
	st.Shapes.Add(shape.Shape{ID: "b", Type: shape.KindRect, X: 100, Y: 100, W: 200, H: 40, Selected: true})
	return st
}

func TestLiveScalesWidths(t *testing.T) {
	sc := Live(testState())

	require.Len(t, sc.Groups, 2)
	assert.Equal(t, 1000.0, sc.Width)
	assert.Equal(t, 800.0, sc.Height)

	a, b := sc.Groups[0], sc.Groups[1]
	assert.Equal(t, scene.ClassShape, a.Body.Class)
	assert.Equal(t, scene.ClassShapeSelected, b.Body.Class)
	assert.Equal(t, 1.0, a.Body.StrokeWidth)
	assert.Equal(t, 6.0, a.Label.FontSize)
	assert.Equal(t, 1.5, a.Label.StrokeWidth)

	assert.Equal(t, "1 m", a.Label.Content)
	assert.Equal(t, 35.0, a.Label.X)
	assert.Equal(t, 14.0, a.Label.Y)
	assert.Equal(t, "4 m x 80 cm", b.Label.Content)

	assert.Empty(t, a.Handles)
	require.Len(t, b.Handles, 4)
	for _, h := range b.Handles {
		assert.Equal(t, 2.5, h.R)
		assert.Equal(t, 1.0, h.StrokeWidth)
		assert.Equal(t, "b", h.ShapeID)
	}
	assert.Equal(t, scene.ClassHandleMove, b.Handles[3].Class)
	assert.Equal(t, shape.HandleMove, b.Handles[3].Handle)
	assert.Nil(t, sc.Draft)
}

func TestForExportUsesWorldScale(t *testing.T) {
	st := testState()

	sc := ForExport(st, false)
	for _, g := range sc.Groups {
		assert.Equal(t, scene.StrokeWidth, g.Body.StrokeWidth)
		assert.Equal(t, scene.FontSize, g.Label.FontSize)
		assert.Empty(t, g.Handles)
	}

	sc = ForExport(st, true)
	assert.Len(t, sc.Groups[1].Handles, 4)
	assert.Equal(t, scene.HandleRadius, sc.Groups[1].Handles[0].R)
}

func TestSquareHasCornerAndMoveHandlesOnly(t *testing.T) {
	st := editor.NewState()
	st.Shapes.Add(shape.Shape{ID: "q", Type: shape.KindSquare, W: 20, H: 20, Selected: true})

	sc := Live(st)
	require.Len(t, sc.Groups[0].Handles, 2)
	assert.Equal(t, shape.HandleResizeSE, sc.Groups[0].Handles[0].Handle)
	assert.Equal(t, "20 x 20", sc.Groups[0].Label.Content)
}

func TestCalibrationDraft(t *testing.T) {
	st := testState()
	st.Active = &editor.CalibrationDraft{Start: geometry.Point{X: 0, Y: 0}, Current: geometry.Point{X: 30, Y: 40}}

	sc := Live(st)
	require.NotNil(t, sc.Draft)
	assert.Equal(t, scene.DraftCalibration, sc.Draft.Kind)
	assert.Equal(t, scene.ClassGuide, sc.Draft.Line.Class)
	assert.Equal(t, []float64{3, 2}, sc.Draft.Line.Dash)
	assert.Equal(t, "50.0 px", sc.Draft.Label.Content)
	assert.Equal(t, 15.0, sc.Draft.Label.X)
	assert.Equal(t, 20.0, sc.Draft.Label.Y)
	assert.Nil(t, sc.Draft.Box)
}

func TestBoxDraft(t *testing.T) {
	st := testState()
	st.Active = &editor.BoxDraft{Shape: shape.KindSquare, Start: geometry.Point{X: 100, Y: 100}, Current: geometry.Point{X: 70, Y: 120}}

	sc := Live(st)
	require.NotNil(t, sc.Draft)
	assert.Equal(t, scene.DraftBox, sc.Draft.Kind)
	assert.Equal(t, scene.Rect{X: 70, Y: 100, Width: 30, Height: 30, Class: scene.ClassShape, StrokeWidth: 1}, *sc.Draft.Box)
}

func TestRenderIsPure(t *testing.T) {
	st := testState()
	st.Active = &editor.CalibrationDraft{Current: geometry.Point{X: 10}}
	before := st.Shapes.All()

	first := Live(st)
	second := Live(st)
	assert.Equal(t, first, second)
	assert.Equal(t, before, st.Shapes.All())
	assert.Equal(t, geometry.Viewport{X: 30, Y: 10, Scale: 2}, st.Viewport)
}
