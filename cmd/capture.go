package cmd

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/capture"
	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/vision"
)

var (
	captureFramesDir string
	captureCameraURL string
)

// captureResult is the JSON contract for the capture command.
type captureResult struct {
	Success   bool              `json:"success"`
	SessionID string            `json:"session_id"`
	Captured  map[string]string `json:"captured,omitempty"`
	Photos    map[string]string `json:"photos,omitempty"`
	Error     string            `json:"error,omitempty"`
}

var captureCmd = &cobra.Command{
	Use:   "capture <session-id>",
	Short: "Run the guided emotion capture sequence",
	Long: `Runs the guided capture sequence over the camera stream: hold each of
neutral, happy, sad and angry until the stability counter confirms it. The
confirmed face crops land in the session photo directory, together with the
photo-N.jpg files the avatar pipeline consumes.

Ctrl-C stops the sequence; whatever was captured so far is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		photoDir := cfg.SessionPhotoDir(sessionID)

		var source vision.Source
		if captureFramesDir != "" {
			source, err = vision.NewDirSource(captureFramesDir, false)
		} else {
			cameraURL := cfg.Capture.CameraURL
			if captureCameraURL != "" {
				cameraURL = captureCameraURL
			}
			source, err = vision.NewMJPEGSource(ctx, cameraURL, 10*time.Second, logger)
		}
		if err != nil {
			emitJSON(captureResult{SessionID: sessionID, Error: err.Error()})
			return fmt.Errorf("open frame source: %w", err)
		}

		classifier := emotion.NewClient(logger, &emotion.ClientConfig{
			BaseURL: cfg.Capture.ClassifierURL,
			Timeout: 10 * time.Second,
		})

		controller := capture.NewController(source, classifier, capture.Config{
			OutputDir:       photoDir,
			StabilityFrames: cfg.Capture.StabilityFrames,
			ReadRetryDelay:  cfg.Capture.ReadRetryDelay,
			MinFaceSize:     cfg.Capture.MinFaceSize,
			MaxFaceArea:     cfg.Capture.MaxFaceArea,
		}, logger)
		controller.SetProgressCallback(func(p capture.Progress) {
			logger.Debug().
				Str("target", string(p.Target)).
				Int("stability", p.Stability).
				Int("captured", p.Captured).
				Msg("Capture progress")
		})

		captured, err := controller.Run(ctx)
		if err != nil {
			emitJSON(captureResult{SessionID: sessionID, Error: err.Error()})
			return err
		}

		result := captureResult{
			SessionID: sessionID,
			Captured:  make(map[string]string, len(captured)),
			Photos:    make(map[string]string, len(captured)),
		}
		for emo, path := range captured {
			result.Captured[string(emo)] = path
			photoPath, err := writeSessionPhoto(path, photoDir, emo)
			if err != nil {
				logger.Warn().Err(err).Str("emotion", string(emo)).Msg("Failed to write session photo")
				continue
			}
			result.Photos[string(emo)] = photoPath
		}
		result.Success = len(captured) == len(emotion.CaptureOrder)
		if !result.Success {
			result.Error = fmt.Sprintf("captured %d of %d emotions", len(captured), len(emotion.CaptureOrder))
		}

		if err := emitJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("capture incomplete")
		}
		return nil
	},
}

// writeSessionPhoto re-encodes a confirmed face crop as the photo-N.jpg file
// the avatar pipeline expects for that emotion.
func writeSessionPhoto(capturePath, photoDir string, emo emotion.Emotion) (string, error) {
	var index int
	for i, e := range emotion.CaptureOrder {
		if e == emo {
			index = i + 1
		}
	}

	data, err := os.ReadFile(capturePath)
	if err != nil {
		return "", err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode capture: %w", err)
	}

	path := filepath.Join(photoDir, fmt.Sprintf("photo-%d.jpg", index))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 92}); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}
	return path, nil
}

func init() {
	captureCmd.Flags().StringVar(&captureFramesDir, "frames-dir", "", "read frames from a directory of JPEGs instead of the camera")
	captureCmd.Flags().StringVar(&captureCameraURL, "camera-url", "", "override the MJPEG camera stream URL")
	rootCmd.AddCommand(captureCmd)
}
