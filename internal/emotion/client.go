package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Classifier analyzes a JPEG frame and returns per-face emotion detections.
// An empty slice with a nil error means no face was found.
type Classifier interface {
	Analyze(ctx context.Context, frameJPEG []byte) ([]Detection, error)
}

// ClientConfig holds emotion service configuration
type ClientConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://localhost:8500",
		Timeout: 10 * time.Second,
	}
}

// Client talks to the face analysis service over HTTP. The service runs the
// actual detector and emotion model; this client only ships frames and decodes
// detections.
type Client struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates a new emotion analysis client
func NewClient(logger zerolog.Logger, cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With().Str("component", "emotion").Logger(),
	}
}

type analyzeResponse struct {
	Faces []struct {
		DominantEmotion string             `json:"dominant_emotion"`
		Emotion         map[string]float64 `json:"emotion"`
		Region          Region             `json:"region"`
	} `json:"faces"`
}

// Analyze posts one JPEG frame to the analysis service and returns the
// detections for every face found. Faces the service could not score are
// omitted rather than reported as errors.
func (c *Client) Analyze(ctx context.Context, frameJPEG []byte) ([]Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("frame", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(frameJPEG); err != nil {
		return nil, fmt.Errorf("write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := c.baseURL + "/analyze"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("emotion service error %d: %s", resp.StatusCode, string(body))
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	now := time.Now()
	detections := make([]Detection, 0, len(decoded.Faces))
	for _, face := range decoded.Faces {
		if face.DominantEmotion == "" {
			continue
		}
		detections = append(detections, Detection{
			Dominant:  face.DominantEmotion,
			Scores:    face.Emotion,
			Region:    face.Region,
			Timestamp: now,
		})
	}

	c.logger.Debug().Int("faces", len(detections)).Msg("Frame analyzed")
	return detections, nil
}
