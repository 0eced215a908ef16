// Package fonts loads the service's font files and resolves numeric weights
// to parsed font assets. The set of families and weights is fixed at deploy
// time; a file that is missing or unreadable is a deployment defect, not a
// per-request condition.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Supported font weights.
const (
	Thin    = 100
	Regular = 400
	Bold    = 700
	Black   = 900
)

// weightSuffix maps each supported weight to the file name suffix used in the
// asset directory, e.g. StabilGrotesk-Thin.ttf.
var weightSuffix = map[int]string{
	Thin:    "Thin",
	Regular: "Regular",
	Bold:    "Bold",
	Black:   "Black",
}

// Asset is one immutable named+weighted font resource.
type Asset struct {
	Name   string
	Weight int
	Font   *sfnt.Font
	Data   []byte
}

// Registry holds all loaded assets for one family. Read-only after Load.
type Registry struct {
	Family string
	assets map[int]*Asset
}

// Load reads and parses every supported weight of the family from dir.
// Both .ttf and .otf are accepted. Any missing or unparsable file fails the
// whole load.
func Load(dir, family string) (*Registry, error) {
	reg := &Registry{Family: family, assets: make(map[int]*Asset, len(weightSuffix))}

	for weight, suffix := range weightSuffix {
		name := family + "-" + suffix
		data, err := readFontFile(dir, name)
		if err != nil {
			return nil, err
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		reg.assets[weight] = &Asset{Name: name, Weight: weight, Font: f, Data: data}
	}
	return reg, nil
}

func readFontFile(dir, name string) ([]byte, error) {
	var firstErr error
	for _, ext := range []string{".ttf", ".otf"} {
		data, err := os.ReadFile(filepath.Join(dir, name+ext))
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("read font %s: %w", name, firstErr)
}

// Asset returns the asset registered for the exact weight. There is no
// interpolation or synthetic bolding.
func (r *Registry) Asset(weight int) (*Asset, error) {
	a, ok := r.assets[weight]
	if !ok {
		return nil, fmt.Errorf("no font asset for weight %d in family %s", weight, r.Family)
	}
	return a, nil
}

// Weights lists the registered weights in ascending order.
func (r *Registry) Weights() []int {
	ws := make([]int, 0, len(r.assets))
	for w := range r.assets {
		ws = append(ws, w)
	}
	sort.Ints(ws)
	return ws
}

// ParseWeight maps a discrete weight tag from the wire format to its numeric
// weight. Unknown tags are an error: a structured payload naming a weight we
// cannot honor is malformed input.
func ParseWeight(tag string) (int, error) {
	switch tag {
	case "thin":
		return Thin, nil
	case "regular":
		return Regular, nil
	case "bold":
		return Bold, nil
	case "black":
		return Black, nil
	}
	return 0, fmt.Errorf("unknown font weight %q", tag)
}
