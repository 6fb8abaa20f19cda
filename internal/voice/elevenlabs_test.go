package voice

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *ElevenLabsProvider {
	t.Helper()
	p := NewElevenLabsProvider(zerolog.Nop(), &ElevenLabsConfig{APIKey: "test-key"})
	httpmock.ActivateNonDefault(p.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return p
}

func TestCreateClone(t *testing.T) {
	p := newTestProvider(t)

	httpmock.RegisterResponder("POST", "https://api.elevenlabs.io/v1/voices/add",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("xi-api-key"))
			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Equal(t, "Clone_Sample User_sess-1", req.FormValue("name"))
			assert.Len(t, req.MultipartForm.File["files"], 1)
			return httpmock.NewJsonResponse(200, map[string]string{"voice_id": "voice-123"})
		})

	voiceID, err := p.CreateClone(context.Background(), "Clone_Sample User_sess-1", "Voice clone for Sample User",
		[]Sample{{Name: "interview.mp3", Data: []byte("audio-bytes")}})
	require.NoError(t, err)
	assert.Equal(t, "voice-123", voiceID)
}

func TestCreateCloneRequiresSamples(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.CreateClone(context.Background(), "name", "desc", nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestCreateCloneAPIError(t *testing.T) {
	p := newTestProvider(t)

	httpmock.RegisterResponder("POST", "https://api.elevenlabs.io/v1/voices/add",
		httpmock.NewStringResponder(401, `{"detail":"invalid key"}`))

	_, err := p.CreateClone(context.Background(), "name", "desc",
		[]Sample{{Name: "a.wav", Data: []byte("x")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSynthesize(t *testing.T) {
	p := newTestProvider(t)

	httpmock.RegisterResponder("POST", "https://api.elevenlabs.io/v1/text-to-speech/voice-123",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "audio/mpeg", req.Header.Get("Accept"))
			return httpmock.NewBytesResponse(200, []byte("mp3-bytes")), nil
		})

	audio, err := p.Synthesize(context.Background(), "voice-123", "Hello there")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestSynthesizeWithoutKey(t *testing.T) {
	p := NewElevenLabsProvider(zerolog.Nop(), &ElevenLabsConfig{APIKey: "none"})
	p.apiKey = ""
	_, err := p.Synthesize(context.Background(), "voice-123", "hi")
	assert.Error(t, err)
}

func TestHistoryBounds(t *testing.T) {
	h := NewHistory(HistoryConfig{MaxMessages: 4})
	for i := 0; i < 5; i++ {
		h.AddExchange("question", "answer")
	}

	assert.Equal(t, 10, h.Len())
	recent := h.Recent()
	require.Len(t, recent, 4)
	assert.Equal(t, "user", recent[0].Role)
	assert.Equal(t, "assistant", recent[3].Role)

	h.Clear()
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Recent())
}
