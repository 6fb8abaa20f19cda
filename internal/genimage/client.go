// Package genimage provides image generation via the Gemini API.
package genimage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Common errors
var (
	ErrGenerationFailed = errors.New("no image data in generation response")
	ErrAPIKeyMissing    = errors.New("Gemini API key not set")
)

// ImageInput is a reference image attached to a generation request.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// PNG wraps raw PNG bytes as an ImageInput.
func PNG(data []byte) ImageInput {
	return ImageInput{MIMEType: "image/png", Data: data}
}

// JPEG wraps raw JPEG bytes as an ImageInput.
func JPEG(data []byte) ImageInput {
	return ImageInput{MIMEType: "image/jpeg", Data: data}
}

// Generator issues one image-generation call. Implementations return the raw
// bytes of the single generated image, or ErrGenerationFailed when the vendor
// response carries no image part.
type Generator interface {
	Generate(ctx context.Context, prompt string, images ...ImageInput) ([]byte, error)
}

// ClientConfig holds Gemini client configuration
type ClientConfig struct {
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Model:    "gemini-2.5-flash-image",
		Endpoint: defaultEndpoint,
		Timeout:  60 * time.Second,
	}
}

// Client calls the Gemini generateContent endpoint over plain HTTP.
type Client struct {
	cfg    *ClientConfig
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates a new Gemini image generation client
func NewClient(logger zerolog.Logger, cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-image"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "genimage").Logger(),
	}
}

type requestPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *inlinePayload `json:"inlineData,omitempty"`
}

type inlinePayload struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"` // encoding/json base64-encodes []byte
}

type generateRequest struct {
	Contents []struct {
		Parts []requestPart `json:"parts"`
	} `json:"contents"`
}

// Generate sends the prompt plus reference images and returns the bytes of
// the generated image. The response contract is exactly one image part;
// anything else is ErrGenerationFailed and is not retried here.
func (c *Client) Generate(ctx context.Context, prompt string, images ...ImageInput) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}

	parts := make([]requestPart, 0, len(images)+1)
	parts = append(parts, requestPart{Text: prompt})
	for _, img := range images {
		parts = append(parts, requestPart{
			InlineData: &inlinePayload{MIMEType: img.MIMEType, Data: img.Data},
		})
	}

	var req generateRequest
	req.Contents = append(req.Contents, struct {
		Parts []requestPart `json:"parts"`
	}{Parts: parts})

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.Endpoint, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	decoded, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	for _, part := range decoded {
		switch part.Kind {
		case PartImage:
			c.logger.Info().
				Int("imageBytes", len(part.Image)).
				Dur("elapsed", time.Since(start)).
				Msg("Image generated")
			return part.Image, nil
		case PartText:
			c.logger.Debug().Str("text", part.Text).Msg("Text part in generation response")
		}
	}

	return nil, ErrGenerationFailed
}
