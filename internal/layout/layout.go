// Package layout models the declarative box/text tree an image request
// describes, and builds one of the supported tree shapes from a normalized
// request. It is pure data: measurement and positioning happen in the
// typeset stage.
package layout

import "github.com/stein-hashx0/next-iamgeg/internal/fonts"

// Mode selects which of the supported layout shapes to build.
type Mode string

const (
	ModeSingle  Mode = "single"  // one wrapping text leaf
	ModeInline  Mode = "inline"  // thin + black side by side
	ModeStacked Mode = "stacked" // thin over black
	ModeTriple  Mode = "triple"  // thin + black + bold side by side
	ModeLines   Mode = "lines"   // structured rows of spans
)

// Direction is the main axis of a Box.
type Direction int

const (
	Column Direction = iota
	Row
)

// Node is either a *Box or a *Text.
type Node interface{ isNode() }

// Box is a flex-like container. Children of a Row box sit on a shared
// baseline; children of a Column box stack vertically. Gap is the spacing in
// pixels along the main axis.
type Box struct {
	Direction Direction
	Gap       float64
	Children  []Node
}

// Text is a leaf span. Wrap enables greedy word wrapping within the canvas;
// leaves with Wrap false behave like whitespace:pre and never break.
type Text struct {
	Content string
	Weight  int
	Size    float64
	Color   string
	Wrap    bool
}

func (*Box) isNode()  {}
func (*Text) isNode() {}

// Canvas is the root of a layout tree: a fixed-size surface whose content is
// centered both horizontally and vertically. An empty Background means fully
// transparent.
type Canvas struct {
	Width      int
	Height     int
	Background string
	Root       *Box
}

// Span is one content+weight pair from the structured lines payload.
type Span struct {
	Text   string
	Weight int
}

// Request is the fully normalized parameter set. All defaults have been
// applied by the time a Request reaches Build.
type Request struct {
	Mode     Mode
	Text     string
	Thin     string
	Black    string
	Bold     string
	Lines    [][]Span
	Color    string
	FontSize int
	Width    int
	Height   int
}

// Build assembles the layout tree for the request's mode. Lines mode without
// a structured payload degrades to the stacked shape.
func Build(req Request) *Canvas {
	size := float64(req.FontSize)
	gap := size / 4

	leaf := func(content string, weight int) *Text {
		return &Text{Content: content, Weight: weight, Size: size, Color: req.Color}
	}

	c := &Canvas{Width: req.Width, Height: req.Height}

	switch req.Mode {
	case ModeInline:
		c.Root = &Box{Direction: Column, Children: []Node{
			&Box{Direction: Row, Gap: gap, Children: []Node{
				leaf(req.Thin, fonts.Thin),
				leaf(req.Black, fonts.Black),
			}},
		}}
	case ModeTriple:
		c.Root = &Box{Direction: Column, Children: []Node{
			&Box{Direction: Row, Gap: gap, Children: []Node{
				leaf(req.Thin, fonts.Thin),
				leaf(req.Black, fonts.Black),
				leaf(req.Bold, fonts.Bold),
			}},
		}}
	case ModeLines:
		if len(req.Lines) == 0 {
			return Build(stackedFallback(req))
		}
		root := &Box{Direction: Column}
		for _, row := range req.Lines {
			box := &Box{Direction: Row}
			for _, s := range row {
				box.Children = append(box.Children, leaf(s.Text, s.Weight))
			}
			root.Children = append(root.Children, box)
		}
		c.Root = root
	case ModeStacked:
		c.Root = &Box{Direction: Column, Children: []Node{
			leaf(req.Thin, fonts.Thin),
			leaf(req.Black, fonts.Black),
		}}
	default: // ModeSingle and anything unrecognized
		c.Background = "#ffffff"
		t := leaf(req.Text, fonts.Regular)
		t.Wrap = true
		c.Root = &Box{Direction: Column, Children: []Node{t}}
	}

	return c
}

func stackedFallback(req Request) Request {
	req.Mode = ModeStacked
	req.Lines = nil
	return req
}
