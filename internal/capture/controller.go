// Package capture implements the guided emotion capture sequence: a
// forward-only state machine over the fixed emotion order, confirmed by a
// stability counter over consecutive matching detections.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/vision"
)

// Config holds capture sequence configuration
type Config struct {
	OutputDir       string        // directory for capture_<emotion>.png files
	StabilityFrames int           // consecutive matching frames to confirm (default 15)
	ReadRetryDelay  time.Duration // wait after a failed camera read (default 100ms)
	MinFaceSize     int           // reject faces smaller than this in either dimension
	MaxFaceArea     float64       // reject faces covering more than this fraction of the frame
	FacePadding     float64       // padding around the saved face crop (default 0.10)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		OutputDir:       ".",
		StabilityFrames: 15,
		ReadRetryDelay:  100 * time.Millisecond,
		MinFaceSize:     50,
		MaxFaceArea:     0.7,
		FacePadding:     0.10,
	}
}

// Progress reports the state of the sequence after each analyzed frame.
type Progress struct {
	Target    emotion.Emotion
	Stability int
	Captured  int
	Detection *emotion.Detection // nil when no usable face was found
}

// Controller runs the capture sequence. The last-detections cache is owned
// here rather than shared as package state; consumers receive it through the
// progress callback.
type Controller struct {
	source     vision.Source
	classifier emotion.Classifier
	cfg        Config
	logger     zerolog.Logger

	targetIndex int
	stability   int
	captured    map[emotion.Emotion]string
	onProgress  func(Progress)
}

// NewController creates a capture controller over the given frame source and
// classifier.
func NewController(source vision.Source, classifier emotion.Classifier, cfg Config, logger zerolog.Logger) *Controller {
	if cfg.StabilityFrames <= 0 {
		cfg.StabilityFrames = 15
	}
	if cfg.ReadRetryDelay <= 0 {
		cfg.ReadRetryDelay = 100 * time.Millisecond
	}
	if cfg.MinFaceSize <= 0 {
		cfg.MinFaceSize = 50
	}
	if cfg.MaxFaceArea <= 0 {
		cfg.MaxFaceArea = 0.7
	}
	if cfg.FacePadding <= 0 {
		cfg.FacePadding = 0.10
	}

	return &Controller{
		source:     source,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger.With().Str("component", "capture").Logger(),
		captured:   make(map[emotion.Emotion]string),
	}
}

// SetProgressCallback registers a callback invoked after every analyzed frame.
func (c *Controller) SetProgressCallback(cb func(Progress)) {
	c.onProgress = cb
}

// Stability returns the current consecutive-match count.
func (c *Controller) Stability() int {
	return c.stability
}

// Captured returns the emotions captured so far, in capture order.
func (c *Controller) Captured() map[emotion.Emotion]string {
	out := make(map[emotion.Emotion]string, len(c.captured))
	for k, v := range c.captured {
		out[k] = v
	}
	return out
}

// Run drives the sequence until every target emotion is captured or the
// context is cancelled. Cancellation is not an error: whatever subset was
// captured so far is returned as valid output.
func (c *Controller) Run(ctx context.Context) (map[emotion.Emotion]string, error) {
	defer c.source.Close()

	for c.targetIndex < len(emotion.CaptureOrder) {
		if ctx.Err() != nil {
			c.logger.Info().Int("captured", len(c.captured)).Msg("Capture sequence aborted")
			return c.Captured(), nil
		}

		frame, err := c.source.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return c.Captured(), nil
			}
			if errors.Is(err, vision.ErrStreamEnded) {
				c.logger.Info().Msg("Frame source exhausted")
				return c.Captured(), nil
			}
			// Transient camera failure: retry after a short delay rather
			// than aborting the sequence.
			c.logger.Warn().Err(err).Msg("Frame read failed, retrying")
			select {
			case <-ctx.Done():
				return c.Captured(), nil
			case <-time.After(c.cfg.ReadRetryDelay):
			}
			continue
		}

		if err := c.processFrame(ctx, frame); err != nil {
			return c.Captured(), err
		}
	}

	c.logger.Info().Int("captured", len(c.captured)).Msg("Capture sequence complete")
	return c.Captured(), nil
}

// processFrame classifies one frame and advances the state machine.
func (c *Controller) processFrame(ctx context.Context, frame *vision.Frame) error {
	target := emotion.CaptureOrder[c.targetIndex]

	detections, err := c.classifier.Analyze(ctx, frame.Data)
	if err != nil {
		// Classifier hiccups are validation-grade: reset and keep going.
		c.logger.Debug().Err(err).Msg("Frame analysis failed")
		c.reset(nil)
		return nil
	}

	detection := c.usableDetection(detections, frame)
	if detection == nil {
		c.reset(nil)
		return nil
	}

	if detection.Dominant != string(target) {
		c.reset(detection)
		return nil
	}

	c.stability++
	c.report(detection)

	if c.stability < c.cfg.StabilityFrames {
		return nil
	}

	path, err := c.saveFace(frame, detection.Region, target)
	if err != nil {
		// Save failure resets the counter; the user just holds the
		// expression a little longer.
		c.logger.Error().Err(err).Str("emotion", string(target)).Msg("Failed to save capture")
		c.stability = 0
		return nil
	}

	c.captured[target] = path
	c.logger.Info().Str("emotion", string(target)).Str("path", path).Msg("Emotion captured")

	c.targetIndex++
	c.stability = 0
	return nil
}

// usableDetection picks the first detection with a plausible face region.
func (c *Controller) usableDetection(detections []emotion.Detection, frame *vision.Frame) *emotion.Detection {
	for i := range detections {
		d := &detections[i]
		if d.PlausibleIn(frame.Width, frame.Height, c.cfg.MinFaceSize, c.cfg.MaxFaceArea) {
			return d
		}
		c.logger.Debug().
			Int("w", d.Region.W).
			Int("h", d.Region.H).
			Msg("Skipping implausible face region")
	}
	return nil
}

func (c *Controller) reset(detection *emotion.Detection) {
	c.stability = 0
	c.report(detection)
}

func (c *Controller) report(detection *emotion.Detection) {
	if c.onProgress == nil {
		return
	}
	c.onProgress(Progress{
		Target:    emotion.CaptureOrder[c.targetIndex],
		Stability: c.stability,
		Captured:  len(c.captured),
		Detection: detection,
	})
}

// saveFace crops the padded face region out of the frame and writes it as
// capture_<emotion>.png in the output directory.
func (c *Controller) saveFace(frame *vision.Frame, region emotion.Region, target emotion.Emotion) (string, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}

	rect := paddedRect(region, img.Bounds(), c.cfg.FacePadding)

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	src, ok := img.(subImager)
	if !ok {
		return "", fmt.Errorf("frame image type %T does not support cropping", img)
	}
	face := src.SubImage(rect)

	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(c.cfg.OutputDir, fmt.Sprintf("capture_%s.png", target))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create capture file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, face); err != nil {
		return "", fmt.Errorf("encode capture: %w", err)
	}
	return path, nil
}

// paddedRect expands the face region by the padding fraction of its longest
// side, clamped to the frame bounds.
func paddedRect(region emotion.Region, bounds image.Rectangle, padding float64) image.Rectangle {
	pad := int(float64(max(region.W, region.H)) * padding)

	x0 := max(bounds.Min.X, region.X-pad)
	y0 := max(bounds.Min.Y, region.Y-pad)
	x1 := min(bounds.Max.X, region.X+region.W+pad)
	y1 := min(bounds.Max.Y, region.Y+region.H+pad)

	return image.Rect(x0, y0, x1, y1)
}
