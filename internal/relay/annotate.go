package relay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/normanking/egoavatar/internal/emotion"
)

var boxColor = color.RGBA{R: 0, G: 220, B: 90, A: 255}

// annotateFrame draws a bounding box around each detected face and returns
// the re-encoded JPEG.
func annotateFrame(frameJPEG []byte, detections []emotion.Detection) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(frameJPEG))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	for _, d := range detections {
		drawBox(dst, d.Region, 3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBox paints a rectangle outline of the given thickness, clipped to the
// image bounds.
func drawBox(img *image.RGBA, r emotion.Region, thickness int) {
	bounds := img.Bounds()
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H

	fill := func(rect image.Rectangle) {
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			return
		}
		draw.Draw(img, rect, image.NewUniform(boxColor), image.Point{}, draw.Src)
	}

	fill(image.Rect(x0, y0, x1, y0+thickness))     // top
	fill(image.Rect(x0, y1-thickness, x1, y1))     // bottom
	fill(image.Rect(x0, y0, x0+thickness, y1))     // left
	fill(image.Rect(x1-thickness, y0, x1, y1))     // right
}
