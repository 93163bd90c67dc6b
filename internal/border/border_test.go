package border

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)

	assert.NoError(t, r.Validate(testPhoto(t, 300, 250)))
	assert.Error(t, r.Validate(testPhoto(t, 150, 300)), "narrow image accepted")
	assert.Error(t, r.Validate(testPhoto(t, 300, 150)), "short image accepted")
	assert.Error(t, r.Validate([]byte("definitely not an image")))
}

func TestRenderIsDeterministicForSeed(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)
	src, _, err := image.Decode(bytes.NewReader(testPhoto(t, 320, 320)))
	require.NoError(t, err)

	a := r.Render(src, SeedFor("U123"))
	b := r.Render(src, SeedFor("U123"))
	assert.Equal(t, a.Pix, b.Pix)

	c := r.Render(src, SeedFor("U456"))
	assert.NotEqual(t, a.Pix, c.Pix, "different members should get different frames")
}

func TestRenderCanvasIsStrictlyLarger(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)
	src, _, err := image.Decode(bytes.NewReader(testPhoto(t, 500, 300)))
	require.NoError(t, err)

	out := r.Render(src, 1)
	bounds := out.Bounds()
	assert.Equal(t, bounds.Dx(), bounds.Dy())
	assert.Greater(t, bounds.Dx(), 400)
}

func TestRenderDrawsBorderColor(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)
	src, _, err := image.Decode(bytes.NewReader(testPhoto(t, 400, 400)))
	require.NoError(t, err)

	out := r.Render(src, 1)
	found := 0
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if out.RGBAAt(x, y) == DartmouthGreen {
				found++
			}
		}
	}
	assert.Greater(t, found, 1000, "expected a visible stroke in the frame color")
}

func TestProcessWritesBothFiles(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)
	dir := t.TempDir()

	originalPath, processedPath, err := r.Process(testPhoto(t, 300, 300), dir, "U123")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "U123_original.png"), originalPath)
	assert.Equal(t, filepath.Join(dir, "U123_bordered.png"), processedPath)

	data, err := os.ReadFile(processedPath)
	assert.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Greater(t, cfg.Width, 400)
}

func TestProcessRejectsSmallImages(t *testing.T) {
	r := NewRenderer(DartmouthGreen, DefaultBorderWidth)
	_, _, err := r.Process(testPhoto(t, 100, 100), t.TempDir(), "U123")
	assert.Error(t, err)
}

func TestSeedForIsStable(t *testing.T) {
	assert.Equal(t, SeedFor("U123"), SeedFor("U123"))
	assert.NotEqual(t, SeedFor("U123"), SeedFor("U124"))
}
