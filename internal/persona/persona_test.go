package persona

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error
	last  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

func TestDerive(t *testing.T) {
	fc := &fakeCompleter{reply: "You are Alex. You fully embody this person's identity."}
	d := NewDeriver(fc, nil, zerolog.Nop())

	framed := FrameTranscript("My name is Alex and I build software.")
	result := d.Derive(context.Background(), framed)

	assert.False(t, result.Degraded)
	assert.Contains(t, result.Value, "You are Alex")

	require.Len(t, fc.last.Messages, 1)
	assert.Contains(t, fc.last.Messages[0].Content, "Interview Question 1")
	assert.Contains(t, fc.last.Messages[0].Content, "My name is Alex and I build software.")
	assert.Equal(t, openai.GPT4, fc.last.Model)
	assert.Equal(t, float32(0.7), fc.last.Temperature)
	assert.Equal(t, 500, fc.last.MaxTokens)
}

func TestDeriveFallbackOnError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	d := NewDeriver(fc, nil, zerolog.Nop())

	result := d.Derive(context.Background(), FrameTranscript("hello"))
	assert.True(t, result.Degraded)
	assert.Equal(t, FallbackPersona, result.Value)
	assert.Contains(t, result.Reason, "rate limited")
}

func TestDeriveFallbackOnEmptyReply(t *testing.T) {
	fc := &fakeCompleter{reply: "   "}
	d := NewDeriver(fc, nil, zerolog.Nop())

	result := d.Derive(context.Background(), FrameTranscript("hello"))
	assert.True(t, result.Degraded)
	assert.Equal(t, FallbackPersona, result.Value)
}

func TestFrameTranscript(t *testing.T) {
	framed := FrameTranscript("I like music.")
	assert.Contains(t, framed, "Interview Question 1: Tell me your name and a bit about yourself.")
	assert.Contains(t, framed, "Answer: I like music.")
}
