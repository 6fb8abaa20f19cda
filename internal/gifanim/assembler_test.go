package gifanim

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestAssembleProducesLoopingGIF(t *testing.T) {
	dir := t.TempDir()
	frame1 := filepath.Join(dir, "frame1.png")
	frame2 := filepath.Join(dir, "frame2.png")
	writeTestPNG(t, frame1, 64, 48, color.RGBA{R: 255, A: 255})
	writeTestPNG(t, frame2, 64, 48, color.RGBA{B: 255, A: 255})

	out := filepath.Join(dir, "out", "happy_animation.gif")
	a := NewAssembler(DefaultConfig(), zerolog.Nop())
	require.NoError(t, a.Assemble([]string{frame1, frame2}, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
	assert.Equal(t, 0, g.LoopCount)
	assert.Equal(t, []int{50, 50}, g.Delay)
}

func TestAssembleDownscalesLargeFrames(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "big.png")
	writeTestPNG(t, frame, 1024, 512, color.RGBA{G: 255, A: 255})

	out := filepath.Join(dir, "out.gif")
	a := NewAssembler(Config{MaxFrameSize: 512, FrameDuration: 500}, zerolog.Nop())
	require.NoError(t, a.Assemble([]string{frame}, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, g.Image, 1)
	b := g.Image[0].Bounds()
	assert.Equal(t, 512, b.Dx())
	assert.Equal(t, 256, b.Dy())
}

func TestAssembleSkipsMissingFrames(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	writeTestPNG(t, frame, 32, 32, color.White)

	out := filepath.Join(dir, "out.gif")
	a := NewAssembler(DefaultConfig(), zerolog.Nop())
	err := a.Assemble([]string{filepath.Join(dir, "missing.png"), frame}, out)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 1)
}

func TestAssembleNoFrames(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(DefaultConfig(), zerolog.Nop())
	err := a.Assemble([]string{filepath.Join(dir, "nope.png")}, filepath.Join(dir, "out.gif"))
	assert.ErrorIs(t, err, ErrNoFrames)
}
