package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data/voice_clones.db", cfg.Data.DBPath)
	assert.Equal(t, 15, cfg.Capture.StabilityFrames)
	assert.Equal(t, 50, cfg.Capture.MinFaceSize)
	assert.InDelta(t, 0.7, cfg.Capture.MaxFaceArea, 0.001)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Image.Model)
	assert.Equal(t, 2, cfg.Image.VariationCount)
	assert.Equal(t, 500, cfg.Image.FrameDuration)
	assert.Equal(t, 512, cfg.Image.MaxFrameSize)
	assert.Equal(t, "eleven_multilingual_v2", cfg.Voice.ModelID)
	assert.Equal(t, "gpt-4", cfg.Chat.Model)
	assert.Equal(t, 150, cfg.Chat.MaxTokens)
	assert.Equal(t, 10, cfg.Chat.HistoryTurns)
	assert.Equal(t, 3, cfg.Relay.AnalyzeEveryN)
}

func TestRequireMissingCredential(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.GeminiAPIKey = ""

	err := cfg.Require(CredGemini)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestRequirePresentCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.GeminiAPIKey = "g"
	cfg.Voice.ElevenLabsAPIKey = "e"
	cfg.Chat.OpenAIAPIKey = "o"

	assert.NoError(t, cfg.Require(CredGemini, CredElevenLabs, CredOpenAI))
}

func TestRequireNamesFirstMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Image.GeminiAPIKey = "g"

	err := cfg.Require(CredGemini, CredElevenLabs, CredOpenAI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
}

func TestLoadPullsCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.Image.GeminiAPIKey)
	assert.Equal(t, "el-key", cfg.Voice.ElevenLabsAPIKey)
	assert.Equal(t, "oa-key", cfg.Chat.OpenAIAPIKey)
}

func TestSessionDirectories(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("data", "photos", "abc"), cfg.SessionPhotoDir("abc"))
	assert.Equal(t, filepath.Join("data", "avatars", "abc"), cfg.SessionAvatarDir("abc"))
}
