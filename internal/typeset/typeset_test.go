package typeset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/stein-hashx0/next-iamgeg/internal/fonts"
	"github.com/stein-hashx0/next-iamgeg/internal/layout"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"StabilGrotesk-Thin.ttf":    goregular.TTF,
		"StabilGrotesk-Regular.ttf": goregular.TTF,
		"StabilGrotesk-Bold.ttf":    gobold.TTF,
		"StabilGrotesk-Black.ttf":   gobold.TTF,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write fixture font %s: %v", name, err)
		}
	}
	reg, err := fonts.Load(dir, "StabilGrotesk")
	require.NoError(t, err)
	return New(reg)
}

func singleCanvas(text, color string, w, h int) *layout.Canvas {
	return &layout.Canvas{
		Width:  w,
		Height: h,
		Root: &layout.Box{Direction: layout.Column, Children: []layout.Node{
			&layout.Text{Content: text, Weight: fonts.Regular, Size: 64, Color: color},
		}},
	}
}

func TestToSVG_EmitsPathsNotText(t *testing.T) {
	e := testEngine(t)

	doc, err := e.ToSVG(singleCanvas("Hello", "#000000", 1200, 630))
	require.NoError(t, err)

	s := string(doc)
	assert.Contains(t, s, "<svg")
	assert.Contains(t, s, `viewBox="0 0 1200 630"`)
	assert.Contains(t, s, "<path")
	assert.NotContains(t, s, "<text")
}

func TestToSVG_ColorPassThrough(t *testing.T) {
	e := testEngine(t)

	doc, err := e.ToSVG(singleCanvas("Hello", "#ff00aa", 400, 200))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "fill:#ff00aa")
}

func TestToSVG_BackgroundRect(t *testing.T) {
	e := testEngine(t)

	c := singleCanvas("Hi", "#000000", 400, 200)
	c.Background = "#ffffff"
	doc, err := e.ToSVG(c)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "fill:#ffffff")

	c.Background = ""
	doc, err = e.ToSVG(c)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<rect")
}

func TestToSVG_RowSpansSitLeftToRight(t *testing.T) {
	e := testEngine(t)

	c := &layout.Canvas{
		Width:  800,
		Height: 400,
		Root: &layout.Box{Direction: layout.Column, Children: []layout.Node{
			&layout.Box{Direction: layout.Row, Gap: 16, Children: []layout.Node{
				&layout.Text{Content: "Hi", Weight: fonts.Thin, Size: 64, Color: "#000000"},
				&layout.Text{Content: "There", Weight: fonts.Black, Size: 64, Color: "#000000"},
			}},
		}},
	}
	doc, err := e.ToSVG(c)
	require.NoError(t, err)

	// One path per span, both on one line.
	assert.Equal(t, 2, strings.Count(string(doc), "<path"))
}

func TestToSVG_WrapProducesMultipleLines(t *testing.T) {
	e := testEngine(t)

	c := &layout.Canvas{
		Width:  300,
		Height: 630,
		Root: &layout.Box{Direction: layout.Column, Children: []layout.Node{
			&layout.Text{Content: "several words that cannot possibly fit on one narrow line", Weight: fonts.Regular, Size: 48, Color: "#000000", Wrap: true},
		}},
	}
	doc, err := e.ToSVG(c)
	require.NoError(t, err)
	assert.Greater(t, strings.Count(string(doc), "<path"), 1)
}

func TestToSVG_NoWrapKeepsOneLine(t *testing.T) {
	e := testEngine(t)

	doc, err := e.ToSVG(singleCanvas("several words that would wrap if wrapping were on", "#000000", 300, 630))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(doc), "<path"))
}

func TestToSVG_Deterministic(t *testing.T) {
	e := testEngine(t)

	c := singleCanvas("Hello deterministic world", "#123456", 640, 360)
	first, err := e.ToSVG(c)
	require.NoError(t, err)
	second, err := e.ToSVG(c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestToSVG_DegenerateCanvas(t *testing.T) {
	e := testEngine(t)

	_, err := e.ToSVG(singleCanvas("Hello", "#000000", 0, 630))
	assert.ErrorContains(t, err, "invalid canvas size")

	_, err = e.ToSVG(singleCanvas("Hello", "#000000", 1200, -1))
	assert.ErrorContains(t, err, "invalid canvas size")
}

func TestToSVG_UnregisteredWeightFails(t *testing.T) {
	e := testEngine(t)

	c := singleCanvas("Hello", "#000000", 400, 200)
	c.Root.Children[0].(*layout.Text).Weight = 550
	_, err := e.ToSVG(c)
	assert.ErrorContains(t, err, "no font asset for weight 550")
}
