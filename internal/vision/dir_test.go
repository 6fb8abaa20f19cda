package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrame(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 80, G: 80, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644))
}

func TestDirSourceReadsFramesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame-002.jpg", 320, 240)
	writeFrame(t, dir, "frame-001.jpg", 160, 120)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	source, err := NewDirSource(dir, false)
	require.NoError(t, err)
	defer source.Close()

	first, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 160, first.Width)
	assert.Equal(t, 120, first.Height)

	second, err := source.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 320, second.Width)

	_, err = source.Read(context.Background())
	assert.ErrorIs(t, err, ErrStreamEnded)
}

func TestDirSourceLoops(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.jpg", 160, 120)

	source, err := NewDirSource(dir, true)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		frame, err := source.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 160, frame.Width)
	}
}

func TestDirSourceEmptyDirectory(t *testing.T) {
	_, err := NewDirSource(t.TempDir(), false)
	assert.ErrorIs(t, err, ErrCameraNotAvailable)
}

func TestDirSourceMissingDirectory(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}

func TestDirSourceHonorsContext(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.jpg", 160, 120)

	source, err := NewDirSource(dir, true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = source.Read(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
