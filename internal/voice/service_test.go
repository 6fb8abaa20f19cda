package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/egoavatar/internal/persona"
	"github.com/normanking/egoavatar/internal/store"
)

type fakeCloner struct {
	voiceID string
	err     error
	samples int
	name    string
}

func (f *fakeCloner) CreateClone(ctx context.Context, name, description string, samples []Sample) (string, error) {
	f.name = name
	f.samples = len(samples)
	if f.err != nil {
		return "", f.err
	}
	return f.voiceID, nil
}

func (f *fakeCloner) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	return []byte("mp3"), nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f.text, f.err
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newTestService(t *testing.T, cloner Cloner, transcriber *fakeTranscriber, chat *fakeChat, cfg ServiceConfig) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "clones.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	deriver := persona.NewDeriver(chat, nil, zerolog.Nop())
	return NewService(cloner, transcriber, deriver, st, cfg, zerolog.Nop()), st
}

func writeAudio(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestCreateForSession(t *testing.T) {
	uploads := t.TempDir()
	writeAudio(t, uploads, "old.mp3", 2*time.Hour)
	writeAudio(t, uploads, "interview.wav", time.Minute)
	writeAudio(t, uploads, "stale.wav.backup", time.Second)

	cloner := &fakeCloner{voiceID: "v-new"}
	svc, st := newTestService(t, cloner,
		&fakeTranscriber{text: "My name is Alex and I build software."},
		&fakeChat{reply: "You are Alex."},
		ServiceConfig{UploadsDir: uploads})

	result := svc.CreateForSession(context.Background(), "sess-1", "Sample User")
	require.Equal(t, "success", result.Status)
	assert.Equal(t, "v-new", result.VoiceID)
	assert.False(t, result.Degraded)
	assert.Equal(t, "Clone_Sample User_sess-1", cloner.name)
	assert.Equal(t, 1, cloner.samples)

	clone, err := st.ByVoiceID("v-new")
	require.NoError(t, err)
	assert.Equal(t, "You are Alex.", clone.PersonalityPrompt)
	assert.Contains(t, clone.InterviewTranscription, "Interview Question 1")
	assert.Contains(t, clone.InterviewTranscription, "My name is Alex")
}

func TestCreateForSessionTranscriptionFallback(t *testing.T) {
	uploads := t.TempDir()
	writeAudio(t, uploads, "interview.mp3", time.Minute)

	svc, st := newTestService(t, &fakeCloner{voiceID: "v-2"},
		&fakeTranscriber{err: errors.New("whisper down")},
		&fakeChat{reply: "You are someone."},
		ServiceConfig{UploadsDir: uploads})

	result := svc.CreateForSession(context.Background(), "sess-2", "Sample User")
	require.Equal(t, "success", result.Status)
	assert.True(t, result.Degraded)
	assert.Contains(t, result.DegradedReason, "transcription failed")

	clone, err := st.ByVoiceID("v-2")
	require.NoError(t, err)
	assert.Contains(t, clone.InterviewTranscription, "My name is Alex")
}

func TestCreateForSessionNoAudio(t *testing.T) {
	svc, _ := newTestService(t, &fakeCloner{voiceID: "v"},
		&fakeTranscriber{text: "hi"}, &fakeChat{reply: "p"},
		ServiceConfig{UploadsDir: t.TempDir()})

	result := svc.CreateForSession(context.Background(), "sess-3", "Sample User")
	assert.Equal(t, "failed", result.Status)
	assert.Contains(t, result.Error, "no interview audio")
}

func TestRetrain(t *testing.T) {
	messages := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.mp3", "d.wav"} {
		writeAudio(t, messages, name, time.Hour)
	}
	writeAudio(t, messages, "ancient.wav", 48*time.Hour)

	cloner := &fakeCloner{voiceID: "v-retrained"}
	svc, st := newTestService(t, cloner,
		&fakeTranscriber{text: "hi"}, &fakeChat{reply: "p"},
		ServiceConfig{VoiceMessagesDir: messages})

	require.NoError(t, st.Create(&store.VoiceClone{
		ID: "v-old", SessionID: "sess-1", UserName: "Sample User", VoiceID: "v-old",
		PersonalityPrompt: "You are Alex.", InterviewTranscription: "transcript",
	}))

	result := svc.Retrain(context.Background(), "v-old")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "v-old", result.OldVoiceID)
	assert.Equal(t, "v-retrained", result.NewVoiceID)
	assert.Equal(t, 4, result.SamplesUsed)

	old, err := st.ByVoiceID("v-old")
	require.NoError(t, err)
	assert.Equal(t, store.StatusArchived, old.Status)

	fresh, err := st.ActiveByVoiceID("v-retrained")
	require.NoError(t, err)
	assert.Equal(t, "You are Alex.", fresh.PersonalityPrompt)
}

func TestRetrainNotEnoughSamples(t *testing.T) {
	messages := t.TempDir()
	writeAudio(t, messages, "a.wav", time.Hour)

	svc, st := newTestService(t, &fakeCloner{voiceID: "v"},
		&fakeTranscriber{text: "hi"}, &fakeChat{reply: "p"},
		ServiceConfig{VoiceMessagesDir: messages})

	require.NoError(t, st.Create(&store.VoiceClone{
		ID: "v-old", SessionID: "s", UserName: "U", VoiceID: "v-old",
	}))

	result := svc.Retrain(context.Background(), "v-old")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Not enough audio samples")
}

func TestRetrainUnknownVoice(t *testing.T) {
	svc, _ := newTestService(t, &fakeCloner{voiceID: "v"},
		&fakeTranscriber{text: "hi"}, &fakeChat{reply: "p"},
		ServiceConfig{VoiceMessagesDir: t.TempDir()})

	result := svc.Retrain(context.Background(), "missing")
	assert.False(t, result.Success)
	assert.Equal(t, "Voice not found", result.Error)
}
