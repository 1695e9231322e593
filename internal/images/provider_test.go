package images

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/trellis/internal/layout/geom"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterReadsHeaderSize(t *testing.T) {
	p := NewFileProvider(zaptest.NewLogger(t))
	h, err := p.Register("logo.png", encodePNG(t, 4, 3, color.NRGBA{R: 255, A: 255}))
	require.NoError(t, err)
	assert.NotZero(t, h)

	sz, ok := p.IntrinsicSize(h)
	require.True(t, ok)
	assert.Equal(t, geom.Size{W: 4, H: 3}, sz)

	again, err := p.Register("logo.png", nil)
	require.NoError(t, err, "known sources are not decoded again")
	assert.Equal(t, h, again)
	assert.Equal(t, 1, p.Len())
}

func TestRGBADecodesLazily(t *testing.T) {
	p := NewFileProvider(nil)
	h, err := p.Register("red.png", encodePNG(t, 2, 2, color.NRGBA{R: 255, A: 255}))
	require.NoError(t, err)

	rgba, ok := p.RGBA(h)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(1, 1))

	cached, ok := p.RGBA(h)
	require.True(t, ok)
	assert.Same(t, rgba, cached)
}

func TestPalettedImagesConvert(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	pal.SetColorIndex(1, 0, 1)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, pal, nil))

	p := NewFileProvider(nil)
	h, err := p.Register("dots.gif", buf.Bytes())
	require.NoError(t, err)
	rgba, ok := p.RGBA(h)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgba.RGBAAt(1, 0))
}

func TestRegisterRejectsGarbage(t *testing.T) {
	p := NewFileProvider(nil)
	_, err := p.Register("junk", []byte("not an image"))
	assert.ErrorContains(t, err, "failed to decode image header for junk")
	_, ok := p.IntrinsicSize(42)
	assert.False(t, ok)
	_, ok = p.RGBA(42)
	assert.False(t, ok)
}

func TestRegisterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 5, 5, color.White), 0o600))

	p := NewFileProvider(nil)
	h, err := p.RegisterFile(path)
	require.NoError(t, err)
	got, ok := p.Lookup(path)
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, err = p.RegisterFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorContains(t, err, "failed to read image")
}

func TestScaled(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	dst := Scaled(src, 8, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), dst.Bounds())
	assert.InDelta(t, 200, int(dst.RGBAAt(4, 2).R), 1)
	assert.True(t, Scaled(src, 0, 4).Bounds().Empty())
}
