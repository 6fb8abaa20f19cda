// Package gifanim assembles still frames into looping GIF animations.
package gifanim

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

// ErrNoFrames is returned when no usable frame was found for an animation.
var ErrNoFrames = errors.New("no frames to assemble")

// Config holds GIF assembly configuration
type Config struct {
	MaxFrameSize  int // longest side after downscaling (default 512)
	FrameDuration int // per-frame delay in milliseconds (default 500)
	LoopCount     int // 0 loops forever
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxFrameSize:  512,
		FrameDuration: 500,
		LoopCount:     0,
	}
}

// Assembler converts frame sequences into animated GIFs.
type Assembler struct {
	cfg    Config
	logger zerolog.Logger
}

// NewAssembler creates a GIF assembler.
func NewAssembler(cfg Config, logger zerolog.Logger) *Assembler {
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = 512
	}
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = 500
	}
	return &Assembler{
		cfg:    cfg,
		logger: logger.With().Str("component", "gifanim").Logger(),
	}
}

// Assemble reads the given PNG frame files, downscales and quantizes each
// one, and writes a looping GIF to outPath. Frame files that are missing or
// unreadable are skipped; only an empty result is an error.
func (a *Assembler) Assemble(framePaths []string, outPath string) error {
	anim := &gif.GIF{LoopCount: a.cfg.LoopCount}
	delay := a.cfg.FrameDuration / 10 // gif delay unit is 1/100s

	for _, path := range framePaths {
		img, err := loadPNG(path)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable frame")
			continue
		}
		frame := a.quantize(a.downscale(img))
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}

	if len(anim.Image) == 0 {
		return ErrNoFrames
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create GIF file: %w", err)
	}
	defer f.Close()

	if err := gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("encode GIF: %w", err)
	}

	a.logger.Info().
		Str("path", outPath).
		Int("frames", len(anim.Image)).
		Msg("Animation assembled")
	return nil
}

// downscale resizes so the longest side is at most MaxFrameSize, preserving
// aspect ratio. Smaller images pass through untouched.
func (a *Assembler) downscale(img image.Image) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= a.cfg.MaxFrameSize {
		return img
	}

	scale := float64(a.cfg.MaxFrameSize) / float64(longest)
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// quantize converts a frame to a paletted image with at most 256 colors.
func (a *Assembler) quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Bounds(), img, b.Min)
	return p
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
