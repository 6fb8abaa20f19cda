// Package config provides configuration management for egoavatar
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Capture CaptureConfig `mapstructure:"capture"`
	Image   ImageConfig   `mapstructure:"image"`
	Voice   VoiceConfig   `mapstructure:"voice"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Relay   RelayConfig   `mapstructure:"relay"`
	Log     LogConfig     `mapstructure:"log"`
}

// DataConfig locates on-disk artifacts
type DataConfig struct {
	Root       string `mapstructure:"root"`        // base data directory
	AvatarsDir string `mapstructure:"avatars_dir"` // per-session avatar output
	PhotosDir  string `mapstructure:"photos_dir"`  // per-session captured photos
	UploadsDir string `mapstructure:"uploads_dir"` // recorded interview audio
	DBPath     string `mapstructure:"db_path"`     // voice clone database
}

// CaptureConfig configures the guided emotion capture sequence
type CaptureConfig struct {
	CameraURL       string        `mapstructure:"camera_url"`       // MJPEG stream endpoint
	ClassifierURL   string        `mapstructure:"classifier_url"`   // emotion analysis service
	StabilityFrames int           `mapstructure:"stability_frames"` // consecutive matches to confirm
	ReadRetryDelay  time.Duration `mapstructure:"read_retry_delay"`
	MinFaceSize     int           `mapstructure:"min_face_size"` // pixels, either dimension
	MaxFaceArea     float64       `mapstructure:"max_face_area"` // fraction of frame area
}

// ImageConfig configures the generative image service
type ImageConfig struct {
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	VariationCount int           `mapstructure:"variation_count"` // stop-motion frames per emotion
	VariationDelay time.Duration `mapstructure:"variation_delay"` // pacing between generation calls
	FrameDuration  int           `mapstructure:"frame_duration"`  // GIF frame duration, ms
	MaxFrameSize   int           `mapstructure:"max_frame_size"`  // GIF frame longest side, px
}

// VoiceConfig configures voice cloning and speech synthesis
type VoiceConfig struct {
	ElevenLabsAPIKey string        `mapstructure:"elevenlabs_api_key"`
	ModelID          string        `mapstructure:"model_id"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ResponsesDir     string        `mapstructure:"responses_dir"` // generated reply audio
	ArchiveDir       string        `mapstructure:"archive_dir"`   // permanent copies for retraining
}

// ChatConfig configures the language model
type ChatConfig struct {
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	HistoryTurns int     `mapstructure:"history_turns"` // messages forwarded to the model
}

// RelayConfig configures the live camera relay
type RelayConfig struct {
	Addr          string        `mapstructure:"addr"`
	AnalyzeEveryN int           `mapstructure:"analyze_every_n"` // classify every Nth frame
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	JPEGQuality   int           `mapstructure:"jpeg_quality"`
}

// LogConfig configures diagnostics output
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Root:       "data",
			AvatarsDir: "data/avatars",
			PhotosDir:  "data/photos",
			UploadsDir: "data/uploads",
			DBPath:     "data/voice_clones.db",
		},
		Capture: CaptureConfig{
			CameraURL:       "http://localhost:8081/stream",
			ClassifierURL:   "http://localhost:8500",
			StabilityFrames: 15,
			ReadRetryDelay:  100 * time.Millisecond,
			MinFaceSize:     50,
			MaxFaceArea:     0.7,
		},
		Image: ImageConfig{
			Model:          "gemini-2.5-flash-image",
			Timeout:        60 * time.Second,
			VariationCount: 2,
			VariationDelay: 1 * time.Second,
			FrameDuration:  500,
			MaxFrameSize:   512,
		},
		Voice: VoiceConfig{
			ModelID:      "eleven_multilingual_v2",
			Timeout:      30 * time.Second,
			ResponsesDir: "data/generated",
			ArchiveDir:   "data/uploads/clone_responses",
		},
		Chat: ChatConfig{
			Model:        "gpt-4",
			Temperature:  0.7,
			MaxTokens:    150,
			HistoryTurns: 10,
		},
		Relay: RelayConfig{
			Addr:          "localhost:8765",
			AnalyzeEveryN: 3,
			FrameInterval: 33 * time.Millisecond,
			JPEGQuality:   75,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".egoavatar"))
	}

	viper.SetEnvPrefix("EGOAVATAR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// No config file: defaults plus environment are enough
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	// Vendor credentials come from the conventional environment variables
	// unless set explicitly in the config file.
	if cfg.Image.GeminiAPIKey == "" {
		cfg.Image.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Voice.ElevenLabsAPIKey == "" {
		cfg.Voice.ElevenLabsAPIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if cfg.Chat.OpenAIAPIKey == "" {
		cfg.Chat.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	return cfg, nil
}

// Credential identifies a required vendor credential
type Credential string

const (
	CredGemini     Credential = "GEMINI_API_KEY"
	CredElevenLabs Credential = "ELEVENLABS_API_KEY"
	CredOpenAI     Credential = "OPENAI_API_KEY"
)

// Require verifies the named credentials are present. A missing credential is
// a startup-time fatal condition, reported with the variable name so the
// operator knows what to set.
func (c *Config) Require(creds ...Credential) error {
	for _, cred := range creds {
		var have string
		switch cred {
		case CredGemini:
			have = c.Image.GeminiAPIKey
		case CredElevenLabs:
			have = c.Voice.ElevenLabsAPIKey
		case CredOpenAI:
			have = c.Chat.OpenAIAPIKey
		}
		if have == "" {
			return fmt.Errorf("%s not set: add it to the environment or config file", cred)
		}
	}
	return nil
}

// SessionPhotoDir returns the captured-photo directory for a session.
func (c *Config) SessionPhotoDir(sessionID string) string {
	return filepath.Join(c.Data.PhotosDir, sessionID)
}

// SessionAvatarDir returns the avatar output directory for a session.
func (c *Config) SessionAvatarDir(sessionID string) string {
	return filepath.Join(c.Data.AvatarsDir, sessionID)
}
