// Package voice provides ElevenLabs voice cloning and speech synthesis.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const ElevenLabsAPIEndpoint = "https://api.elevenlabs.io/v1"

// ErrNoSamples is returned when a clone is requested without audio samples.
var ErrNoSamples = errors.New("no audio samples provided")

// Sample is one audio file used to train a clone.
type Sample struct {
	Name string
	Data []byte
}

// LoadSample reads an audio file into a Sample.
func LoadSample(path string) (Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sample{}, fmt.Errorf("read audio sample: %w", err)
	}
	return Sample{Name: filepath.Base(path), Data: data}, nil
}

// Cloner creates voice clones and synthesizes speech with them.
type Cloner interface {
	CreateClone(ctx context.Context, name, description string, samples []Sample) (string, error)
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

// ElevenLabsConfig holds ElevenLabs API configuration
type ElevenLabsConfig struct {
	APIKey     string  `json:"api_key"`
	ModelID    string  `json:"model_id"`
	Stability  float64 `json:"stability"`
	Similarity float64 `json:"similarity_boost"`
	Endpoint   string  `json:"endpoint"`
}

// DefaultElevenLabsConfig returns sensible defaults
func DefaultElevenLabsConfig() *ElevenLabsConfig {
	return &ElevenLabsConfig{
		ModelID:    "eleven_multilingual_v2",
		Stability:  0.5,
		Similarity: 0.75,
		Endpoint:   ElevenLabsAPIEndpoint,
	}
}

// ElevenLabsProvider implements Cloner against the ElevenLabs REST API.
type ElevenLabsProvider struct {
	apiKey string
	config *ElevenLabsConfig
	client *http.Client
	logger zerolog.Logger
}

// NewElevenLabsProvider creates an ElevenLabs voice provider.
func NewElevenLabsProvider(logger zerolog.Logger, config *ElevenLabsConfig) *ElevenLabsProvider {
	if config == nil {
		config = DefaultElevenLabsConfig()
	}
	if config.Endpoint == "" {
		config.Endpoint = ElevenLabsAPIEndpoint
	}
	if config.ModelID == "" {
		config.ModelID = "eleven_multilingual_v2"
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ELEVENLABS_API_KEY")
	}

	return &ElevenLabsProvider{
		apiKey: apiKey,
		config: config,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger.With().Str("provider", "elevenlabs").Logger(),
	}
}

// Name returns the provider identifier
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// IsAvailable reports whether the provider has credentials.
func (p *ElevenLabsProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// CreateClone trains an instant voice clone from the given audio samples and
// returns the new voice ID.
func (p *ElevenLabsProvider) CreateClone(ctx context.Context, name, description string, samples []Sample) (string, error) {
	if !p.IsAvailable() {
		return "", fmt.Errorf("ElevenLabs API key not set")
	}
	if len(samples) == 0 {
		return "", ErrNoSamples
	}

	startTime := time.Now()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("name", name); err != nil {
		return "", fmt.Errorf("write name field: %w", err)
	}
	if err := writer.WriteField("description", description); err != nil {
		return "", fmt.Errorf("write description field: %w", err)
	}
	for _, sample := range samples {
		part, err := writer.CreateFormFile("files", sample.Name)
		if err != nil {
			return "", fmt.Errorf("create sample part: %w", err)
		}
		if _, err := part.Write(sample.Data); err != nil {
			return "", fmt.Errorf("write sample data: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/voices/add", p.config.Endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ElevenLabs API error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if result.VoiceID == "" {
		return "", fmt.Errorf("no voice_id in response")
	}

	p.logger.Info().
		Str("voice", result.VoiceID).
		Int("samples", len(samples)).
		Dur("time", time.Since(startTime)).
		Msg("Voice clone created")
	return result.VoiceID, nil
}

// Synthesize renders text as speech in the cloned voice and returns MP3
// bytes.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("ElevenLabs API key not set")
	}

	startTime := time.Now()

	payload := map[string]any{
		"text":     text,
		"model_id": p.config.ModelID,
		"voice_settings": map[string]float64{
			"stability":        p.config.Stability,
			"similarity_boost": p.config.Similarity,
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", p.config.Endpoint, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	p.logger.Info().
		Str("voice", voiceID).
		Int("audioBytes", len(audioData)).
		Dur("processingTime", time.Since(startTime)).
		Msg("Speech synthesis complete")
	return audioData, nil
}
