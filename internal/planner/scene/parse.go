package scene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/shape"
)

var ErrMalformedSnapshot = errors.New("malformed svg snapshot")

// ============================================================
// XML Structures
// ============================================================

type svgDoc struct {
	XMLName xml.Name   `xml:"svg"`
	Width   string     `xml:"width,attr"`
	Height  string     `xml:"height,attr"`
	ViewBox string     `xml:"viewBox,attr"`
	Groups  []svgGroup `xml:"g"`
	svgElements
}

type svgGroup struct {
	Class string `xml:"class,attr"`
	ID    string `xml:"data-id,attr"`
	Kind  string `xml:"data-kind,attr"`
	svgElements
}

type svgElements struct {
	Rects   []svgRect   `xml:"rect"`
	Lines   []svgLine   `xml:"line"`
	Texts   []svgText   `xml:"text"`
	Circles []svgCircle `xml:"circle"`
}

type svgRect struct {
	Class       string  `xml:"class,attr"`
	X           float64 `xml:"x,attr"`
	Y           float64 `xml:"y,attr"`
	Width       float64 `xml:"width,attr"`
	Height      float64 `xml:"height,attr"`
	StrokeWidth float64 `xml:"stroke-width,attr"`
}

type svgLine struct {
	Class       string  `xml:"class,attr"`
	X1          float64 `xml:"x1,attr"`
	Y1          float64 `xml:"y1,attr"`
	X2          float64 `xml:"x2,attr"`
	Y2          float64 `xml:"y2,attr"`
	StrokeWidth float64 `xml:"stroke-width,attr"`
	Dash        string  `xml:"stroke-dasharray,attr"`
}

type svgText struct {
	Class       string  `xml:"class,attr"`
	X           float64 `xml:"x,attr"`
	Y           float64 `xml:"y,attr"`
	FontSize    float64 `xml:"font-size,attr"`
	StrokeWidth float64 `xml:"stroke-width,attr"`
	Content     string  `xml:",chardata"`
}

type svgCircle struct {
	Class       string  `xml:"class,attr"`
	CX          float64 `xml:"cx,attr"`
	CY          float64 `xml:"cy,attr"`
	R           float64 `xml:"r,attr"`
	StrokeWidth float64 `xml:"stroke-width,attr"`
	Handle      string  `xml:"data-handle,attr"`
	ShapeID     string  `xml:"data-id,attr"`
}

// ============================================================
// Snapshot
// ============================================================

// Snapshot is a parsed SVG overlay together with the frame it was drawn in.
type Snapshot struct {
	Scene *Scene
	// ViewBox is the user-space frame. Empty when the document declared
	// neither a viewBox nor a width/height.
	ViewBox geometry.Rect
}

// WithFallback fills a missing frame with the given size.
func (s *Snapshot) WithFallback(size geometry.Size) {
	if s.ViewBox.W > 0 && s.ViewBox.H > 0 {
		return
	}
	s.ViewBox = geometry.Rect{W: size.Width, H: size.Height}
	if s.Scene.Width <= 0 || s.Scene.Height <= 0 {
		s.Scene.Width, s.Scene.Height = size.Width, size.Height
	}
}

// ============================================================
// Parser
// ============================================================

// ParseSVG reads a snapshot written by MarshalSVG, or any SVG using the same
// classes. Top-level elements outside a group are read as the draft.
func ParseSVG(r io.Reader) (*Snapshot, error) {
	var doc svgDoc
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	width, err := parseLength(doc.Width)
	if err != nil {
		return nil, err
	}
	height, err := parseLength(doc.Height)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Scene: &Scene{Width: width, Height: height, Groups: []Group{}}}

	if doc.ViewBox != "" {
		vb, err := parseViewBox(doc.ViewBox)
		if err != nil {
			return nil, err
		}
		snap.ViewBox = vb
		if snap.Scene.Width <= 0 || snap.Scene.Height <= 0 {
			snap.Scene.Width, snap.Scene.Height = vb.W, vb.H
		}
	} else if width > 0 && height > 0 {
		snap.ViewBox = geometry.Rect{W: width, H: height}
	}

	for _, g := range doc.Groups {
		switch g.Class {
		case draftClass:
			snap.Scene.Draft = parseDraft(DraftKind(g.Kind), g.svgElements)
		case groupClass:
			snap.Scene.Groups = append(snap.Scene.Groups, parseGroup(g))
		}
	}

	if snap.Scene.Draft == nil {
		snap.Scene.Draft = parseDraft("", doc.svgElements)
	}

	return snap, nil
}

func parseGroup(g svgGroup) Group {
	out := Group{ID: g.ID, ShapeKind: shape.Kind(g.Kind)}
	if len(g.Rects) > 0 {
		out.Body = rectFrom(g.Rects[0])
	}
	if len(g.Texts) > 0 {
		out.Label = textFrom(g.Texts[0])
	}
	for _, c := range g.Circles {
		out.Handles = append(out.Handles, Circle{
			CX: c.CX, CY: c.CY, R: c.R,
			Class:       Class(c.Class),
			StrokeWidth: c.StrokeWidth,
			Handle:      shape.Handle(c.Handle),
			ShapeID:     c.ShapeID,
		})
	}
	return out
}

// parseDraft returns nil when the elements hold nothing drawable.
func parseDraft(kind DraftKind, el svgElements) *Draft {
	d := &Draft{Kind: kind}
	if len(el.Lines) > 0 {
		l := el.Lines[0]
		d.Line = &Line{
			X1: l.X1, Y1: l.Y1, X2: l.X2, Y2: l.Y2,
			Class:       Class(l.Class),
			StrokeWidth: l.StrokeWidth,
			Dash:        parseDash(l.Dash),
		}
		d.Kind = DraftCalibration
	}
	if len(el.Texts) > 0 {
		t := textFrom(el.Texts[0])
		d.Label = &t
	}
	if len(el.Rects) > 0 {
		r := rectFrom(el.Rects[0])
		d.Box = &r
		if d.Line == nil {
			d.Kind = DraftBox
		}
	}
	if d.Line == nil && d.Box == nil {
		return nil
	}
	return d
}

func rectFrom(r svgRect) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, Class: Class(r.Class), StrokeWidth: r.StrokeWidth}
}

func textFrom(t svgText) Text {
	return Text{
		X: t.X, Y: t.Y,
		Content:     strings.TrimSpace(t.Content),
		Class:       Class(t.Class),
		FontSize:    t.FontSize,
		StrokeWidth: t.StrokeWidth,
	}
}

// ============================================================
// Attribute helpers
// ============================================================

// parseLength accepts "800" and "800px"; empty means absent.
func parseLength(raw string) (float64, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: bad length %q", ErrMalformedSnapshot, raw)
	}
	return v, nil
}

func parseViewBox(raw string) (geometry.Rect, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return geometry.Rect{}, fmt.Errorf("%w: bad viewBox %q", ErrMalformedSnapshot, raw)
	}
	var vals [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("%w: bad viewBox %q", ErrMalformedSnapshot, raw)
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return geometry.Rect{}, fmt.Errorf("%w: empty viewBox %q", ErrMalformedSnapshot, raw)
	}
	return geometry.Rect{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

func parseDash(raw string) []float64 {
	var out []float64
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' }) {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}
