package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

// writeNormalizedPNG decodes generated image bytes, flattens any alpha
// channel onto a white background, and writes the result as PNG. Vendors
// return a mix of formats and transparency; downstream frame assembly
// expects opaque PNG.
func writeNormalizedPNG(data []byte, path string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode generated image: %w", err)
	}

	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, flat); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return nil
}
