package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redRectSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">
<rect x="0" y="0" width="20" height="10" style="fill:#ff0000" />
</svg>`

const emptySVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">
</svg>`

func TestToPNG_ExactDimensions(t *testing.T) {
	out, err := ToPNG([]byte(redRectSVG), 20, 10)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestToPNG_FillColor(t *testing.T) {
	out, err := ToPNG([]byte(redRectSVG), 20, 10)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, g, b, a := img.At(10, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestToPNG_TransparentBackdrop(t *testing.T) {
	out, err := ToPNG([]byte(emptySVG), 20, 10)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a, "backdrop must be rgba(0,0,0,0)")
}

func TestToPNG_InvalidSVG(t *testing.T) {
	_, err := ToPNG([]byte("definitely not xml <<"), 20, 10)
	assert.ErrorContains(t, err, "parse svg")
}

func TestToPNG_InvalidSize(t *testing.T) {
	_, err := ToPNG([]byte(redRectSVG), 0, 10)
	assert.ErrorContains(t, err, "invalid output size")

	_, err = ToPNG([]byte(redRectSVG), 20, -5)
	assert.ErrorContains(t, err, "invalid output size")
}

func TestToPNG_Deterministic(t *testing.T) {
	first, err := ToPNG([]byte(redRectSVG), 20, 10)
	require.NoError(t, err)
	second, err := ToPNG([]byte(redRectSVG), 20, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
