// Package export flattens an SVG overlay snapshot onto the background raster
// and writes the result as PNG.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gomonobold"

	"plan-measure/internal/planner/geometry"
	"plan-measure/internal/planner/scene"
)

// DefaultMaxPixels bounds the output raster when no limit is configured.
const DefaultMaxPixels = 25_000_000

var (
	ErrMalformedSnapshot = scene.ErrMalformedSnapshot
	ErrRasterize         = errors.New("rasterize overlay")
	ErrFrameTooLarge     = fmt.Errorf("%w: frame too large", ErrRasterize)
)

// ============================================================
// Compositor
// ============================================================

// Compositor rasterizes snapshots with gg. It holds no per-export state and
// may be shared.
type Compositor struct {
	font      *text.FontSource
	logger    *slog.Logger
	maxPixels int
}

type Option func(*Compositor)

// WithMaxPixels caps width*height of any frame the compositor allocates.
func WithMaxPixels(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.maxPixels = n
		}
	}
}

func NewCompositor(logger *slog.Logger, opts ...Option) (*Compositor, error) {
	src, err := text.NewFontSource(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Compositor{font: src, logger: logger, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExportPNG parses svg, draws it over bg and writes a PNG the exact size of
// bg. A nil bg composites onto a white canvas sized to the snapshot frame.
func (c *Compositor) ExportPNG(w io.Writer, bg image.Image, svg string) error {
	snap, err := scene.ParseSVG(strings.NewReader(svg))
	if err != nil {
		return err
	}

	dc, err := c.render(bg, snap)
	if err != nil {
		return err
	}
	defer dc.Close()

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("%w: encode png: %v", ErrRasterize, err)
	}
	return nil
}

// Composite returns a new image; bg is never modified.
func (c *Compositor) Composite(bg image.Image, snap *scene.Snapshot) (image.Image, error) {
	dc, err := c.render(bg, snap)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

func (c *Compositor) render(bg image.Image, snap *scene.Snapshot) (*gg.Context, error) {
	if bg == nil {
		if err := c.checkFrame(snap.Scene.Width, snap.Scene.Height); err != nil {
			return nil, err
		}
		bg = blank(snap.Scene.Width, snap.Scene.Height)
	}
	if bg == nil || bg.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", ErrRasterize)
	}

	size := geometry.Size{Width: float64(bg.Bounds().Dx()), Height: float64(bg.Bounds().Dy())}
	if err := c.checkFrame(size.Width, size.Height); err != nil {
		return nil, err
	}
	snap.WithFallback(size)

	dc := gg.NewContextForImage(bg)
	p := newPainter(dc, c.font, snap.ViewBox, size)
	if err := p.drawScene(snap.Scene); err != nil {
		dc.Close()
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	c.logger.Debug("overlay composited",
		"component", "export",
		"width", int(size.Width),
		"height", int(size.Height),
		"groups", len(snap.Scene.Groups))
	return dc, nil
}

// checkFrame rejects frames above the pixel budget. NaN and infinite sizes
// fail the comparison and are rejected too.
func (c *Compositor) checkFrame(w, h float64) error {
	if !(w*h <= float64(c.maxPixels)) {
		return fmt.Errorf("%w: %gx%g exceeds %d pixels", ErrFrameTooLarge, w, h, c.maxPixels)
	}
	return nil
}

func blank(w, h float64) image.Image {
	if w < 1 || h < 1 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, int(math.Round(w)), int(math.Round(h))))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// ============================================================
// Painter
// ============================================================

// painter maps snapshot user space onto output pixels. Text in gg ignores
// the context matrix, so every coordinate is mapped here instead.
type painter struct {
	dc       *gg.Context
	font     *text.FontSource
	outlines *text.OutlineExtractor
	origin   geometry.Point
	sx, sy   float64
	unit     float64
}

func newPainter(dc *gg.Context, font *text.FontSource, frame geometry.Rect, out geometry.Size) *painter {
	sx := out.Width / frame.W
	sy := out.Height / frame.H
	return &painter{
		dc:       dc,
		font:     font,
		outlines: text.NewOutlineExtractor(),
		origin:   geometry.Point{X: frame.X, Y: frame.Y},
		sx:       sx,
		sy:       sy,
		unit:     math.Sqrt(sx * sy),
	}
}

func (p *painter) pt(x, y float64) (float64, float64) {
	return (x - p.origin.X) * p.sx, (y - p.origin.Y) * p.sy
}

func (p *painter) drawScene(sc *scene.Scene) error {
	if d := sc.Draft; d != nil {
		if d.Box != nil {
			if err := p.rect(*d.Box); err != nil {
				return err
			}
		}
		if d.Line != nil {
			if err := p.line(*d.Line); err != nil {
				return err
			}
		}
		if d.Label != nil {
			if err := p.label(*d.Label); err != nil {
				return err
			}
		}
	}

	for _, g := range sc.Groups {
		if err := p.rect(g.Body); err != nil {
			return err
		}
		if err := p.label(g.Label); err != nil {
			return err
		}
		for _, h := range g.Handles {
			if err := p.circle(h); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *painter) rect(r scene.Rect) error {
	x, y := p.pt(r.X, r.Y)
	p.dc.DrawRectangle(x, y, r.Width*p.sx, r.Height*p.sy)
	return p.paint(scene.StyleFor(r.Class), r.StrokeWidth)
}

func (p *painter) circle(c scene.Circle) error {
	x, y := p.pt(c.CX, c.CY)
	p.dc.DrawCircle(x, y, c.R*p.unit)
	return p.paint(scene.StyleFor(c.Class), c.StrokeWidth)
}

func (p *painter) line(l scene.Line) error {
	st := scene.StyleFor(l.Class)
	if st.Stroke.None() {
		return nil
	}

	x1, y1 := p.pt(l.X1, l.Y1)
	x2, y2 := p.pt(l.X2, l.Y2)
	if len(l.Dash) > 0 {
		dash := make([]float64, len(l.Dash))
		for i, v := range l.Dash {
			dash[i] = v * p.unit
		}
		p.dc.SetDash(dash...)
		defer p.dc.ClearDash()
	}

	p.dc.DrawLine(x1, y1, x2, y2)
	p.dc.SetRGBA(st.Stroke.Floats())
	p.dc.SetLineWidth(l.StrokeWidth * p.unit)
	return p.dc.Stroke()
}

// paint fills then strokes the current path with the class colors.
func (p *painter) paint(st scene.Style, strokeWidth float64) error {
	if !st.Fill.None() {
		p.dc.SetRGBA(st.Fill.Floats())
		if err := p.dc.FillPreserve(); err != nil {
			return err
		}
	}
	if st.Stroke.None() || strokeWidth <= 0 {
		p.dc.ClearPath()
		return nil
	}
	p.dc.SetRGBA(st.Stroke.Floats())
	p.dc.SetLineWidth(strokeWidth * p.unit)
	return p.dc.Stroke()
}

// label draws a middle-anchored label. The halo strokes the glyph outlines
// once so it keeps the stroke color's alpha, then the text is filled on top.
func (p *painter) label(t scene.Text) error {
	if t.Content == "" || t.FontSize <= 0 {
		return nil
	}
	st := scene.StyleFor(t.Class)
	x, y := p.pt(t.X, t.Y)
	size := t.FontSize * p.unit
	face := p.font.Face(size)

	if halo := t.StrokeWidth * p.unit; halo > 0 && !st.Stroke.None() {
		w, _ := text.Measure(t.Content, face)
		p.glyphPath(t.Content, face, size, x-w/2, y)
		p.dc.SetRGBA(st.Stroke.Floats())
		p.dc.SetLineWidth(halo)
		p.dc.SetLineJoin(gg.LineJoinRound)
		err := p.dc.Stroke()
		p.dc.SetLineJoin(gg.LineJoinMiter)
		if err != nil {
			return err
		}
	}
	if !st.Fill.None() {
		p.dc.SetFont(face)
		p.dc.SetRGBA(st.Fill.Floats())
		p.dc.DrawStringAnchored(t.Content, x, y, 0.5, 0)
	}
	return nil
}

// glyphPath appends the outlines of s, with its baseline starting at (x, y),
// to the current path. Outline coordinates grow downward like the canvas.
func (p *painter) glyphPath(s string, face text.Face, size, x, y float64) {
	parsed := p.font.Parsed()
	for _, g := range text.Shape(s, face) {
		outline, err := p.outlines.ExtractOutline(parsed, g.GID, size)
		if err != nil || outline == nil || outline.IsEmpty() {
			continue
		}
		ox, oy := x+g.X, y+g.Y
		at := func(pt text.OutlinePoint) (float64, float64) {
			return ox + float64(pt.X), oy + float64(pt.Y)
		}

		open := false
		for _, seg := range outline.Segments {
			switch seg.Op {
			case text.OutlineOpMoveTo:
				if open {
					p.dc.ClosePath()
				}
				p.dc.MoveTo(at(seg.Points[0]))
				open = true
			case text.OutlineOpLineTo:
				p.dc.LineTo(at(seg.Points[0]))
			case text.OutlineOpQuadTo:
				cx, cy := at(seg.Points[0])
				px, py := at(seg.Points[1])
				p.dc.QuadraticTo(cx, cy, px, py)
			case text.OutlineOpCubicTo:
				c1x, c1y := at(seg.Points[0])
				c2x, c2y := at(seg.Points[1])
				px, py := at(seg.Points[2])
				p.dc.CubicTo(c1x, c1y, c2x, c2y, px, py)
			}
		}
		if open {
			p.dc.ClosePath()
		}
	}
}
