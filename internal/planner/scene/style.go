package scene

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Screen-space sizes of the visual affordances. Renderers divide them by the
// viewport scale so they keep their apparent size at any zoom.
const (
	StrokeWidth       = 2.0
	HandleRadius      = 5.0
	HandleStrokeWidth = 2.0
	FontSize          = 12.0
	HaloWidth         = 3.0
)

// GuideDash is the calibration guide dash pattern in screen pixels.
var GuideDash = [2]float64{6, 4}

// ============================================================
// Style table
// ============================================================

type Class string

const (
	ClassShape         Class = "shape"
	ClassShapeSelected Class = "shape selected"
	ClassGuide         Class = "line-guide"
	ClassDim           Class = "dim"
	ClassHandle        Class = "handle"
	ClassHandleMove    Class = "handle move"
)

// Color is an sRGB color with straight alpha in [0, 1]. A zero alpha paints nothing.
type Color struct {
	R, G, B uint8
	A       float64
}

func (c Color) None() bool {
	return c.A <= 0
}

// CSS renders the color the way the stylesheet writes it.
func (c Color) CSS() string {
	if c.None() {
		return "none"
	}
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// Floats returns the color as 0-1 components.
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, c.A
}

type Style struct {
	Fill   Color
	Stroke Color
}

// Font settings for ClassDim labels.
const (
	LabelFontFamily = "ui-monospace, SFMono-Regular, Menlo, Consolas, monospace"
	LabelFontWeight = "bold"
)

var (
	blue        = Color{R: 0x25, G: 0x63, B: 0xeb, A: 1}
	magenta     = Color{R: 0xd9, G: 0x46, B: 0xef, A: 1}
	white       = Color{R: 0xff, G: 0xff, B: 0xff, A: 1}
	transparent = Color{}
)

var styles = map[Class]Style{
	ClassShape:         {Fill: Color{R: 37, G: 99, B: 235, A: 0.1}, Stroke: blue},
	ClassShapeSelected: {Fill: Color{R: 217, G: 70, B: 239, A: 0.15}, Stroke: magenta},
	ClassGuide:         {Fill: transparent, Stroke: blue},
	ClassDim:           {Fill: white, Stroke: Color{A: 0.8}},
	ClassHandle:        {Fill: white, Stroke: magenta},
	ClassHandleMove:    {Fill: blue, Stroke: white},
}

// StyleFor looks up the fixed style of a class. Unknown classes fall back to
// the plain shape style.
func StyleFor(c Class) Style {
	if s, ok := styles[c]; ok {
		return s
	}
	return styles[ClassShape]
}

// Stylesheet is the CSS embedded in every SVG snapshot. Widths are not in the
// sheet; elements carry them as attributes so zoom compensation survives.
func Stylesheet() string {
	classes := make([]string, 0, len(styles))
	for c := range styles {
		classes = append(classes, string(c))
	}
	sort.Strings(classes)

	var b strings.Builder
	for _, c := range classes {
		st := styles[Class(c)]
		b.WriteString(selector(Class(c)))
		b.WriteString(" { fill: ")
		b.WriteString(st.Fill.CSS())
		b.WriteString("; stroke: ")
		b.WriteString(st.Stroke.CSS())
		b.WriteString(";")
		if Class(c) == ClassDim {
			b.WriteString(" font-family: " + LabelFontFamily + "; font-weight: " + LabelFontWeight + "; paint-order: stroke;")
		}
		b.WriteString(" }\n")
	}
	return b.String()
}

// selector turns "shape selected" into ".shape.selected".
func selector(c Class) string {
	parts := strings.Fields(string(c))
	return "." + strings.Join(parts, ".")
}
