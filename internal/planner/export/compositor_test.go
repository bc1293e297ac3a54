package export

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-measure/internal/planner/scene"
	"plan-measure/internal/planner/shape"
)

var gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

func grayBackground(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(gray), image.Point{}, draw.Src)
	return img
}

func overlay(w, h float64) *scene.Scene {
	return &scene.Scene{
		Width:  w,
		Height: h,
		Groups: []scene.Group{{
			ID:        "a",
			ShapeKind: shape.KindSquare,
			Body:      scene.Rect{X: 20, Y: 20, Width: 60, Height: 60, Class: scene.ClassShape, StrokeWidth: 2},
			Label:     scene.Text{X: 50, Y: 8, Content: "1 m", Class: scene.ClassDim, FontSize: 12, StrokeWidth: 3},
		}},
	}
}

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := NewCompositor(nil)
	require.NoError(t, err)
	return c
}

func rgbAt(img image.Image, x, y int) (r, g, b uint8) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}

func TestExportPNGMatchesBackground(t *testing.T) {
	c := newTestCompositor(t)
	bg := grayBackground(200, 100)

	var buf bytes.Buffer
	require.NoError(t, c.ExportPNG(&buf, bg, scene.MarshalSVG(overlay(200, 100))))

	out, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())

	r, _, b := rgbAt(out, 50, 50)
	assert.Greater(t, b, r, "shape interior is tinted blue")

	r, g, b := rgbAt(out, 150, 90)
	assert.Equal(t, [3]uint8{128, 128, 128}, [3]uint8{r, g, b})

	assert.Equal(t, gray, bg.RGBAAt(50, 50), "background is not modified")
}

func TestCompositeMapsViewBox(t *testing.T) {
	c := newTestCompositor(t)
	bg := grayBackground(200, 200)

	sc := overlay(100, 100)
	sc.Groups[0].Label.Content = ""
	snap := &scene.Snapshot{Scene: sc}
	snap.ViewBox.W, snap.ViewBox.H = 100, 100

	out, err := c.Composite(bg, snap)
	require.NoError(t, err)
	assert.Equal(t, bg.Bounds(), out.Bounds())

	r, _, b := rgbAt(out, 120, 120)
	assert.Greater(t, b, r)
	r, _, b = rgbAt(out, 180, 180)
	assert.Equal(t, r, b)
}

func TestCompositeWithoutBackground(t *testing.T) {
	c := newTestCompositor(t)

	snap, err := scene.ParseSVG(bytes.NewReader([]byte(scene.MarshalSVG(overlay(120, 90)))))
	require.NoError(t, err)
	out, err := c.Composite(nil, snap)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 90), out.Bounds())

	r, g, b := rgbAt(out, 110, 85)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}

func TestExportErrors(t *testing.T) {
	c := newTestCompositor(t)
	var buf bytes.Buffer

	err := c.ExportPNG(&buf, grayBackground(10, 10), "<svg><rect")
	assert.ErrorIs(t, err, ErrMalformedSnapshot)

	err = c.ExportPNG(&buf, nil, "<svg></svg>")
	assert.ErrorIs(t, err, ErrRasterize)

	err = c.ExportPNG(&buf, image.NewRGBA(image.Rectangle{}), `<svg width="10" height="10"></svg>`)
	assert.ErrorIs(t, err, ErrRasterize)
	assert.Zero(t, buf.Len())
}

func TestExportRejectsOversizedFrames(t *testing.T) {
	c := newTestCompositor(t)
	var buf bytes.Buffer

	err := c.ExportPNG(&buf, nil, `<svg width="100000000" height="100000000"/>`)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.ErrorIs(t, err, ErrRasterize)

	err = c.ExportPNG(&buf, nil, `<svg width="20000" height="20000"/>`)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	small, err := NewCompositor(nil, WithMaxPixels(50))
	require.NoError(t, err)
	err = small.ExportPNG(&buf, grayBackground(10, 10), `<svg width="10" height="10"></svg>`)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Zero(t, buf.Len())

	require.NoError(t, small.ExportPNG(&buf, grayBackground(5, 5), `<svg width="5" height="5"></svg>`))
}

func TestLabelHaloKeepsStrokeAlpha(t *testing.T) {
	c := newTestCompositor(t)
	sc := &scene.Scene{
		Width:  200,
		Height: 80,
		Groups: []scene.Group{{
			ID:    "a",
			Body:  scene.Rect{Class: scene.ClassGuide},
			Label: scene.Text{X: 100, Y: 55, Content: "88 m", Class: scene.ClassDim, FontSize: 40, StrokeWidth: 6},
		}},
	}

	out, err := c.Composite(nil, &scene.Snapshot{Scene: sc})
	require.NoError(t, err)

	darkest := uint8(255)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _ := rgbAt(out, x, y); r < darkest {
				darkest = r
			}
		}
	}
	// Black at 0.8 over white is 51; overlapping stamps would go darker.
	assert.Less(t, darkest, uint8(100), "halo is drawn")
	assert.GreaterOrEqual(t, darkest, uint8(45), "halo does not build up past its alpha")
}

func TestFileStorageSave(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	path, err := s.Save("sess", "../../etc/plan", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, s.ExportPath("sess", "plan.png"), path)
	assert.Equal(t, "sess", filepath.Base(filepath.Dir(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, DefaultFilename, SanitizeFilename(""))
	assert.Equal(t, DefaultFilename, SanitizeFilename("  "))
	assert.Equal(t, "a.png", SanitizeFilename("dir/a.png"))
	assert.Equal(t, "b.PNG", SanitizeFilename("b.PNG"))
	assert.Equal(t, "c.jpg.png", SanitizeFilename("c.jpg"))
}
