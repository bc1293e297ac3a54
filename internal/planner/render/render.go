// Package render projects editor state into a scene.Scene. It is pure: the
// same state always yields an equal scene and nothing is mutated.
package render

import (
	"fmt"

	"plan-measure/internal/planner/editor"
	"plan-measure/internal/planner/scene"
	"plan-measure/internal/planner/shape"
)

// Options controls a projection.
type Options struct {
	// Scale divides every screen-constant width. Live views pass the
	// viewport scale; exports pass 1.
	Scale float64
	// Handles draws manipulation handles on selected shapes.
	Handles bool
}

// Live is the on-screen projection at the current zoom.
func Live(st *editor.State) *scene.Scene {
	return Render(st, Options{Scale: st.Viewport.Scale, Handles: true})
}

// ForExport renders at world scale, so one export pixel is one world pixel.
func ForExport(st *editor.State, includeHandles bool) *scene.Scene {
	return Render(st, Options{Scale: 1, Handles: includeHandles})
}

func Render(st *editor.State, opts Options) *scene.Scene {
	s := opts.Scale
	if s <= 0 {
		s = 1
	}
	w := widths{
		stroke: scene.StrokeWidth / s,
		radius: scene.HandleRadius / s,
		handle: scene.HandleStrokeWidth / s,
		font:   scene.FontSize / s,
		halo:   scene.HaloWidth / s,
		dash:   []float64{scene.GuideDash[0] / s, scene.GuideDash[1] / s},
	}

	out := &scene.Scene{
		Width:  st.Background.Width,
		Height: st.Background.Height,
		Groups: []scene.Group{},
	}

	for _, sh := range st.Shapes.All() {
		out.Groups = append(out.Groups, group(sh, st.MeterPerPixel, opts.Handles, w))
	}
	out.Draft = draft(st.Active, w)

	return out
}

// ============================================================
// Elements
// ============================================================

type widths struct {
	stroke, radius, handle, font, halo float64
	dash                               []float64
}

func group(sh shape.Shape, mpp float64, handles bool, w widths) scene.Group {
	class := scene.ClassShape
	if sh.Selected {
		class = scene.ClassShapeSelected
	}

	g := scene.Group{
		ID:        sh.ID,
		ShapeKind: sh.Type,
		Body: scene.Rect{
			X: sh.X, Y: sh.Y, Width: sh.W, Height: sh.H,
			Class:       class,
			StrokeWidth: w.stroke,
		},
		Label: scene.Text{
			X:           sh.X + sh.W/2,
			Y:           sh.Y - w.font,
			Content:     sh.Label(mpp),
			Class:       scene.ClassDim,
			FontSize:    w.font,
			StrokeWidth: w.halo,
		},
	}

	if !handles || !sh.Selected {
		return g
	}
	for _, hp := range sh.Handles() {
		hc := scene.ClassHandle
		if hp.Kind == shape.HandleMove {
			hc = scene.ClassHandleMove
		}
		g.Handles = append(g.Handles, scene.Circle{
			CX: hp.At.X, CY: hp.At.Y,
			R:           w.radius,
			Class:       hc,
			StrokeWidth: w.handle,
			Handle:      hp.Kind,
			ShapeID:     sh.ID,
		})
	}
	return g
}

func draft(g editor.Gesture, w widths) *scene.Draft {
	switch d := g.(type) {
	case *editor.CalibrationDraft:
		mid := d.Start.Midpoint(d.Current)
		return &scene.Draft{
			Kind: scene.DraftCalibration,
			Line: &scene.Line{
				X1: d.Start.X, Y1: d.Start.Y,
				X2: d.Current.X, Y2: d.Current.Y,
				Class:       scene.ClassGuide,
				StrokeWidth: w.stroke,
				Dash:        w.dash,
			},
			Label: &scene.Text{
				X:           mid.X,
				Y:           mid.Y,
				Content:     fmt.Sprintf("%.1f px", d.Length()),
				Class:       scene.ClassDim,
				FontSize:    w.font,
				StrokeWidth: w.halo,
			},
		}

	case *editor.BoxDraft:
		r := d.Rect()
		return &scene.Draft{
			Kind: scene.DraftBox,
			Box: &scene.Rect{
				X: r.X, Y: r.Y, Width: r.W, Height: r.H,
				Class:       scene.ClassShape,
				StrokeWidth: w.stroke,
			},
		}
	}
	return nil
}
