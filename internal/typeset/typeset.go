// Package typeset turns a layout tree plus loaded fonts into an SVG document.
// It owns all text measurement, wrapping and positioning; glyphs are emitted
// as outline paths so the raster stage needs no font access at all.
package typeset

import (
	"bytes"
	"fmt"
	"strings"

	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/stein-hashx0/next-iamgeg/internal/fonts"
	"github.com/stein-hashx0/next-iamgeg/internal/layout"
)

// lineSpacing is the line advance as a multiple of the font size.
const lineSpacing = 1.25

// Engine typesets layout trees against one font registry. Engines are cheap;
// the per-call shaping buffer is allocated per ToSVG invocation, so one
// Engine is safe for concurrent use.
type Engine struct {
	reg *fonts.Registry
}

// New returns an engine backed by the given registry.
func New(reg *fonts.Registry) *Engine {
	return &Engine{reg: reg}
}

// span is a measured text run ready for placement.
type span struct {
	text  string
	asset *fonts.Asset
	size  float64
	color string
	width float64
}

// line is one horizontal row of spans sharing a baseline.
type line struct {
	spans   []span
	gap     float64
	width   float64
	ascent  float64
	descent float64
	advance float64
}

// ToSVG lays out the canvas and returns the SVG document bytes. The document
// is produced at exactly the canvas dimensions; the rasterizer performs no
// further fitting.
func (e *Engine) ToSVG(c *layout.Canvas) ([]byte, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("typeset: invalid canvas size %dx%d", c.Width, c.Height)
	}
	if c.Root == nil || c.Root.Direction != layout.Column {
		return nil, fmt.Errorf("typeset: root must be a column box")
	}

	var buf sfnt.Buffer
	var lines []line

	for _, child := range c.Root.Children {
		switch n := child.(type) {
		case *layout.Text:
			built, err := e.textLines(&buf, n, c.Width)
			if err != nil {
				return nil, err
			}
			lines = append(lines, built...)
		case *layout.Box:
			if n.Direction != layout.Row {
				return nil, fmt.Errorf("typeset: nested column boxes are not supported")
			}
			ln, err := e.rowLine(&buf, n)
			if err != nil {
				return nil, err
			}
			lines = append(lines, ln)
		default:
			return nil, fmt.Errorf("typeset: unsupported node %T", child)
		}
	}

	var total float64
	for _, ln := range lines {
		total += ln.advance
	}

	var out bytes.Buffer
	doc := svg.New(&out)
	doc.Startview(c.Width, c.Height, 0, 0, c.Width, c.Height)
	if c.Background != "" {
		doc.Rect(0, 0, c.Width, c.Height, "fill:"+c.Background)
	}

	y := (float64(c.Height) - total) / 2
	for _, ln := range lines {
		baseline := y + (ln.advance+ln.ascent-ln.descent)/2
		x := (float64(c.Width) - ln.width) / 2
		for _, s := range ln.spans {
			d, err := e.spanPath(&buf, s, x, baseline)
			if err != nil {
				return nil, err
			}
			if d != "" {
				doc.Path(d, "fill:"+s.color)
			}
			x += s.width + ln.gap
		}
		y += ln.advance
	}
	doc.End()

	return out.Bytes(), nil
}

// textLines converts a text leaf into one or more lines. Wrapping leaves
// break greedily on spaces (collapsing runs of whitespace, as flowed text
// does); pre leaves always produce exactly one line.
func (e *Engine) textLines(buf *sfnt.Buffer, t *layout.Text, canvasWidth int) ([]line, error) {
	asset, err := e.reg.Asset(t.Weight)
	if err != nil {
		return nil, err
	}

	texts := []string{t.Content}
	if t.Wrap {
		maxWidth := float64(canvasWidth) - 2*t.Size
		texts, err = e.wrap(buf, asset, t, maxWidth)
		if err != nil {
			return nil, err
		}
	}

	built := make([]line, 0, len(texts))
	for _, content := range texts {
		ln, err := e.rowLine(buf, &layout.Box{Direction: layout.Row, Children: []layout.Node{
			&layout.Text{Content: content, Weight: t.Weight, Size: t.Size, Color: t.Color},
		}})
		if err != nil {
			return nil, err
		}
		built = append(built, ln)
	}
	return built, nil
}

func (e *Engine) wrap(buf *sfnt.Buffer, asset *fonts.Asset, t *layout.Text, maxWidth float64) ([]string, error) {
	words := strings.Fields(t.Content)
	if len(words) == 0 || maxWidth <= 0 {
		return []string{t.Content}, nil
	}

	var out []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		w, err := e.textWidth(buf, asset, candidate, t.Size)
		if err != nil {
			return nil, err
		}
		if w <= maxWidth {
			current = candidate
			continue
		}
		out = append(out, current)
		current = word
	}
	return append(out, current), nil
}

// rowLine measures a row box of text leaves into a single baseline-shared line.
func (e *Engine) rowLine(buf *sfnt.Buffer, box *layout.Box) (line, error) {
	ln := line{gap: box.Gap}

	for _, child := range box.Children {
		t, ok := child.(*layout.Text)
		if !ok {
			return line{}, fmt.Errorf("typeset: row boxes may only contain text leaves, got %T", child)
		}
		asset, err := e.reg.Asset(t.Weight)
		if err != nil {
			return line{}, err
		}

		width, err := e.textWidth(buf, asset, t.Content, t.Size)
		if err != nil {
			return line{}, err
		}

		ppem := toPpem(t.Size)
		m, err := asset.Font.Metrics(buf, ppem, font.HintingNone)
		if err != nil {
			return line{}, fmt.Errorf("typeset: metrics for %s: %w", asset.Name, err)
		}

		ln.spans = append(ln.spans, span{text: t.Content, asset: asset, size: t.Size, color: t.Color, width: width})
		ln.width += width
		ln.ascent = max(ln.ascent, toPx(m.Ascent))
		ln.descent = max(ln.descent, toPx(m.Descent))
		ln.advance = max(ln.advance, t.Size*lineSpacing)
	}
	if n := len(ln.spans); n > 1 {
		ln.width += ln.gap * float64(n-1)
	}
	return ln, nil
}

// textWidth is the sum of glyph advances plus kerning, unhinted.
func (e *Engine) textWidth(buf *sfnt.Buffer, asset *fonts.Asset, text string, size float64) (float64, error) {
	ppem := toPpem(size)
	var width fixed.Int26_6
	prev := sfnt.GlyphIndex(0)
	hasPrev := false

	for _, r := range text {
		gi, err := asset.Font.GlyphIndex(buf, r)
		if err != nil {
			return 0, fmt.Errorf("typeset: glyph index in %s: %w", asset.Name, err)
		}
		if hasPrev {
			if k, err := asset.Font.Kern(buf, prev, gi, ppem, font.HintingNone); err == nil {
				width += k
			}
		}
		adv, err := asset.Font.GlyphAdvance(buf, gi, ppem, font.HintingNone)
		if err != nil {
			return 0, fmt.Errorf("typeset: glyph advance in %s: %w", asset.Name, err)
		}
		width += adv
		prev, hasPrev = gi, true
	}
	return toPx(width), nil
}

// spanPath renders every glyph outline of the span into one absolute SVG path,
// translated so the span starts at x with its baseline at y. Glyph segments
// from sfnt are already y-down, matching SVG coordinates.
func (e *Engine) spanPath(buf *sfnt.Buffer, s span, x, y float64) (string, error) {
	ppem := toPpem(s.size)
	var d strings.Builder
	var pen fixed.Int26_6
	prev := sfnt.GlyphIndex(0)
	hasPrev := false

	for _, r := range s.text {
		gi, err := s.asset.Font.GlyphIndex(buf, r)
		if err != nil {
			return "", fmt.Errorf("typeset: glyph index in %s: %w", s.asset.Name, err)
		}
		if hasPrev {
			if k, err := s.asset.Font.Kern(buf, prev, gi, ppem, font.HintingNone); err == nil {
				pen += k
			}
		}

		segs, err := s.asset.Font.LoadGlyph(buf, gi, ppem, nil)
		if err != nil {
			return "", fmt.Errorf("typeset: load glyph in %s: %w", s.asset.Name, err)
		}
		writeSegments(&d, segs, x+toPx(pen), y)

		adv, err := s.asset.Font.GlyphAdvance(buf, gi, ppem, font.HintingNone)
		if err != nil {
			return "", fmt.Errorf("typeset: glyph advance in %s: %w", s.asset.Name, err)
		}
		pen += adv
		prev, hasPrev = gi, true
	}
	return d.String(), nil
}

func writeSegments(d *strings.Builder, segs sfnt.Segments, dx, dy float64) {
	open := false
	pt := func(p fixed.Point26_6) (float64, float64) {
		return dx + toPx(p.X), dy + toPx(p.Y)
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				d.WriteString("Z")
			}
			x0, y0 := pt(seg.Args[0])
			fmt.Fprintf(d, "M%.2f %.2f", x0, y0)
			open = true
		case sfnt.SegmentOpLineTo:
			x0, y0 := pt(seg.Args[0])
			fmt.Fprintf(d, "L%.2f %.2f", x0, y0)
		case sfnt.SegmentOpQuadTo:
			x0, y0 := pt(seg.Args[0])
			x1, y1 := pt(seg.Args[1])
			fmt.Fprintf(d, "Q%.2f %.2f %.2f %.2f", x0, y0, x1, y1)
		case sfnt.SegmentOpCubeTo:
			x0, y0 := pt(seg.Args[0])
			x1, y1 := pt(seg.Args[1])
			x2, y2 := pt(seg.Args[2])
			fmt.Fprintf(d, "C%.2f %.2f %.2f %.2f %.2f %.2f", x0, y0, x1, y1, x2, y2)
		}
	}
	if open {
		d.WriteString("Z")
	}
}

func toPpem(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

func toPx(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
