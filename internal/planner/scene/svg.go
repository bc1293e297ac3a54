package scene

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// SVG snapshot writer
// ============================================================

// Group and draft markers used in snapshots.
const (
	groupClass = "shape-group"
	draftClass = "draft"
)

// MarshalSVG serializes the scene into a self-contained SVG snapshot. The
// stylesheet is embedded and every element carries its class plus explicit
// widths, so the snapshot renders the same outside the editor.
func MarshalSVG(sc *Scene) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(sc.Width), formatFloat(sc.Height), formatFloat(sc.Width), formatFloat(sc.Height)))
	b.WriteString("\n")

	b.WriteString("  <style>\n")
	for _, line := range strings.Split(strings.TrimRight(Stylesheet(), "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("  </style>\n")

	if d := sc.Draft; d != nil {
		b.WriteString(fmt.Sprintf(`  <g class="%s" data-kind="%s">`, draftClass, d.Kind))
		b.WriteString("\n")
		if d.Box != nil {
			writeRect(&b, *d.Box)
		}
		if d.Line != nil {
			writeLine(&b, *d.Line)
		}
		if d.Label != nil {
			writeText(&b, *d.Label)
		}
		b.WriteString("  </g>\n")
	}

	for _, g := range sc.Groups {
		b.WriteString(fmt.Sprintf(`  <g class="%s" data-id="%s" data-kind="%s">`, groupClass, escape(g.ID), g.ShapeKind))
		b.WriteString("\n")
		writeRect(&b, g.Body)
		writeText(&b, g.Label)
		for _, c := range g.Handles {
			writeCircle(&b, c)
		}
		b.WriteString("  </g>\n")
	}

	b.WriteString(`</svg>`)
	return b.String()
}

func writeRect(b *strings.Builder, r Rect) {
	b.WriteString(fmt.Sprintf(`    <rect class="%s" x="%s" y="%s" width="%s" height="%s" stroke-width="%s" />`,
		r.Class, formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Width), formatFloat(r.Height), formatFloat(r.StrokeWidth)))
	b.WriteString("\n")
}

func writeLine(b *strings.Builder, l Line) {
	b.WriteString(fmt.Sprintf(`    <line class="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s"`,
		l.Class, formatFloat(l.X1), formatFloat(l.Y1), formatFloat(l.X2), formatFloat(l.Y2), formatFloat(l.StrokeWidth)))
	if len(l.Dash) > 0 {
		parts := make([]string, len(l.Dash))
		for i, v := range l.Dash {
			parts[i] = formatFloat(v)
		}
		b.WriteString(` stroke-dasharray="` + strings.Join(parts, " ") + `"`)
	}
	b.WriteString(" />\n")
}

func writeText(b *strings.Builder, t Text) {
	b.WriteString(fmt.Sprintf(`    <text class="%s" x="%s" y="%s" font-size="%s" stroke-width="%s" text-anchor="middle">%s</text>`,
		t.Class, formatFloat(t.X), formatFloat(t.Y), formatFloat(t.FontSize), formatFloat(t.StrokeWidth), escape(t.Content)))
	b.WriteString("\n")
}

func writeCircle(b *strings.Builder, c Circle) {
	b.WriteString(fmt.Sprintf(`    <circle class="%s" cx="%s" cy="%s" r="%s" stroke-width="%s" data-handle="%s" data-id="%s" />`,
		c.Class, formatFloat(c.CX), formatFloat(c.CY), formatFloat(c.R), formatFloat(c.StrokeWidth), c.Handle, escape(c.ShapeID)))
	b.WriteString("\n")
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
