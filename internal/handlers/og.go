package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/stein-hashx0/next-iamgeg/internal/fonts"
	"github.com/stein-hashx0/next-iamgeg/internal/layout"
	"github.com/stein-hashx0/next-iamgeg/internal/raster"
	"github.com/stein-hashx0/next-iamgeg/internal/typeset"
	u "github.com/stein-hashx0/next-iamgeg/internal/utils"
)

// Documented parameter defaults.
const (
	DefaultText     = "Hello"
	DefaultWidth    = 1200
	DefaultHeight   = 630
	DefaultFontSize = 64

	defaultColor      = "#000000"
	defaultLinesColor = "#1e0033"
)

// genericFailure is the only error detail clients ever see; the real cause
// goes to the logs.
const genericFailure = "Failed to generate image"

// OGService bundles configuration and the lazily loaded font registry.
type OGService struct {
	Config *u.Config

	fontsMu sync.Mutex
	reg     *fonts.Registry
}

// NewOGService creates a new OGService instance.
func NewOGService(cfg u.Config) *OGService {
	return &OGService{Config: &cfg}
}

// getFonts loads the font registry on first use. A failed load is not cached:
// the next request retries, so a fixed deployment recovers without a restart.
func (svc *OGService) getFonts() (*fonts.Registry, error) {
	svc.fontsMu.Lock()
	defer svc.fontsMu.Unlock()

	if svc.reg != nil {
		return svc.reg, nil
	}
	reg, err := fonts.Load(svc.Config.Fonts.Dir, svc.Config.Fonts.Family)
	if err != nil {
		return nil, err
	}
	svc.reg = reg
	return svc.reg, nil
}

// HandleImage renders the requested layout to PNG. Every failure, whatever
// the stage, is logged and collapsed into the uniform 500 response.
func (svc *OGService) HandleImage(c *fiber.Ctx) error {
	req, err := extractImageParams(c)
	if err != nil {
		u.Error("Invalid image request", "error", err.Error(), "path", c.OriginalURL())
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	reg, err := svc.getFonts()
	if err != nil {
		u.Error("Font registry unavailable", "error", err.Error(), "dir", svc.Config.Fonts.Dir)
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	tree := layout.Build(req)

	svgDoc, err := typeset.New(reg).ToSVG(tree)
	if err != nil {
		u.Error("Typesetting failed", "error", err.Error(), "mode", string(req.Mode))
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	pngBuf, err := raster.ToPNG(svgDoc, tree.Width, tree.Height)
	if err != nil {
		u.Error("Rasterization failed", "error", err.Error(), "width", tree.Width, "height", tree.Height)
		return fiber.NewError(fiber.StatusInternalServerError, genericFailure)
	}

	requestID := c.Get("X-Request-ID")
	u.Info("Image generated", "mode", string(req.Mode), "width", tree.Width, "height", tree.Height, "bytes", len(pngBuf), "request_id", requestID)

	c.Set("Content-Type", "image/png")
	c.Set("Cache-Control", "no-store, max-age=0")
	return c.Send(pngBuf)
}

// extractImageParams applies the coercion rules: string parameters fall back
// to documented defaults, numeric parameters must parse if present, and a
// structured lines payload both forces lines mode and must be well formed.
func extractImageParams(c *fiber.Ctx) (layout.Request, error) {
	req := layout.Request{
		Mode:  normalizeMode(c.Query("mode")),
		Text:  stringParam(c.Query("text"), DefaultText),
		Thin:  c.Query("thin"),
		Black: c.Query("black"),
		Bold:  c.Query("bold"),
	}

	if raw := c.Query("lines"); raw != "" {
		rows, err := decodeLines(raw)
		if err != nil {
			return layout.Request{}, err
		}
		req.Mode = layout.ModeLines
		req.Lines = rows
	}

	req.Color = stringParam(c.Query("color"), colorDefault(req.Mode))

	var err error
	if req.Width, err = intParam(c, "width", DefaultWidth); err != nil {
		return layout.Request{}, err
	}
	if req.Height, err = intParam(c, "height", DefaultHeight); err != nil {
		return layout.Request{}, err
	}
	if req.FontSize, err = intParam(c, "fontSize", DefaultFontSize); err != nil {
		return layout.Request{}, err
	}
	return req, nil
}

func normalizeMode(raw string) layout.Mode {
	switch m := layout.Mode(raw); m {
	case layout.ModeSingle, layout.ModeInline, layout.ModeStacked, layout.ModeTriple, layout.ModeLines:
		return m
	}
	return layout.ModeSingle
}

func colorDefault(mode layout.Mode) string {
	if mode == layout.ModeStacked || mode == layout.ModeLines {
		return defaultLinesColor
	}
	return defaultColor
}

func stringParam(raw, def string) string {
	if raw == "" {
		return def
	}
	return raw
}

// intParam parses a base-10 integer query value. Absent or empty means the
// default; present but unparsable is an explicit failure, never a silent
// clamp.
func intParam(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q", key, raw)
	}
	return v, nil
}

// lineSpan is the wire shape of one span inside the lines payload.
type lineSpan struct {
	Text   string `json:"text"`
	Weight string `json:"weight"`
}

// decodeLines decodes the base64 JSON rows payload. Standard base64 is tried
// first, then the URL-safe alphabet, since these values travel in query
// strings.
func decodeLines(raw string) ([][]layout.Span, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("lines parameter is not valid base64: %w", err)
	}

	var rows [][]lineSpan
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("lines parameter is not a valid rows array: %w", err)
	}

	out := make([][]layout.Span, len(rows))
	for i, row := range rows {
		out[i] = make([]layout.Span, len(row))
		for j, s := range row {
			weight, err := fonts.ParseWeight(s.Weight)
			if err != nil {
				return nil, fmt.Errorf("lines parameter row %d: %w", i, err)
			}
			out[i][j] = layout.Span{Text: s.Text, Weight: weight}
		}
	}
	return out, nil
}
