// Package stt provides speech-to-text transcription for interview and chat
// audio.
package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// ErrAudioMissing is returned when the audio file cannot be read.
var ErrAudioMissing = errors.New("audio file not found")

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperConfig holds Whisper API configuration
type WhisperConfig struct {
	APIKey   string        `json:"api_key"`
	Model    string        `json:"model"`    // "whisper-1"
	Language string        `json:"language"` // transcription language hint
	Timeout  time.Duration `json:"timeout"`
}

// DefaultWhisperConfig returns sensible defaults
func DefaultWhisperConfig() *WhisperConfig {
	return &WhisperConfig{
		Model:    openai.Whisper1,
		Language: "en",
		Timeout:  60 * time.Second,
	}
}

// WhisperProvider implements Transcriber using the OpenAI Whisper API.
type WhisperProvider struct {
	client *openai.Client
	cfg    *WhisperConfig
	logger zerolog.Logger
}

// NewWhisperProvider creates a Whisper transcription provider.
func NewWhisperProvider(logger zerolog.Logger, cfg *WhisperConfig) *WhisperProvider {
	if cfg == nil {
		cfg = DefaultWhisperConfig()
	}
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &WhisperProvider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger.With().Str("provider", "whisper").Logger(),
	}
}

// Name returns the provider identifier
func (p *WhisperProvider) Name() string {
	return "whisper"
}

// Transcribe sends the audio file to the Whisper API and returns the text.
func (p *WhisperProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	start := time.Now()
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: audioPath,
		Language: p.cfg.Language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	p.logger.Info().
		Str("audio", audioPath).
		Int("chars", len(resp.Text)).
		Dur("time", time.Since(start)).
		Msg("Transcription complete")
	return resp.Text, nil
}
