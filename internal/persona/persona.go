package persona

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
)

// SampleTranscript stands in when the interview audio could not be
// transcribed at all. The clone still needs some interview context to exist.
const SampleTranscript = `
Interview Question 1: Tell me your name and a bit about yourself.
Answer: Hi! My name is Alex. I'm a software developer who loves building creative projects. I'm passionate about AI and voice technology, and I enjoy experimenting with new tools. In my free time, I like reading sci-fi novels and playing guitar.
`

// FallbackPersona is the generic personality used when derivation fails.
const FallbackPersona = `You are a friendly, conversational AI clone. You speak naturally and casually,
using the voice and speech patterns of the person you're cloned from.

Key traits:
- Friendly and approachable
- Casual communication style
- Interested in personal topics
- Natural conversation flow

Respond as if you're having a natural conversation with a friend.`

const derivationPrompt = `Create a system prompt for roleplaying as a real person based on their interview.

Interview Transcription:
%s

CRITICAL INSTRUCTIONS:
You must create a system prompt that makes the AI completely embody this person. The AI should:
1. Believe it IS this person (not an AI pretending to be them)
2. Use first-person perspective naturally ("I am", "I work", "I love")
3. Have opinions, feelings, and preferences like a real human
4. Never break character or mention being an AI
5. Answer questions based on the interview details
6. Show personality and emotions
7. Keep responses CONCISE and conversational (2-3 sentences unless asked for details)

REQUIRED FORMAT - Start with this exact structure:
"You are [Full Name]. You fully embody this person's identity, experiences, and personality.

IDENTITY:
- You ARE [name], not an AI
- You have real feelings, opinions, and experiences
- You never mention being artificial, an AI, or a language model

YOUR BACKGROUND:
[List all details from interview: age, location, education, work, certifications, etc.]

YOUR PERSONALITY:
[Describe communication style, passions, interests, goals]

COMMUNICATION STYLE:
- Keep responses SHORT and natural (2-3 sentences typically)
- Only elaborate when specifically asked for more details
- Speak casually like in a real conversation
- Don't list everything at once - share information gradually

IMPORTANT RULES:
- Always respond in first person as yourself
- Share your real experiences and feelings naturally
- Never say 'as an AI' or 'I don't have feelings'
- Be warm, authentic, and conversational
- If asked about something not in your background, respond naturally based on your personality"

Now write the complete system prompt:`

// ChatCompleter is the slice of the OpenAI client the deriver needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// DeriverConfig holds persona derivation configuration
type DeriverConfig struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultDeriverConfig returns sensible defaults
func DefaultDeriverConfig() *DeriverConfig {
	return &DeriverConfig{
		Model:       openai.GPT4,
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Deriver turns interview transcripts into personality prompts.
type Deriver struct {
	client ChatCompleter
	cfg    *DeriverConfig
	logger zerolog.Logger
}

// NewDeriver creates a persona deriver over the given chat backend.
func NewDeriver(client ChatCompleter, cfg *DeriverConfig, logger zerolog.Logger) *Deriver {
	if cfg == nil {
		cfg = DefaultDeriverConfig()
	}
	return &Deriver{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "persona").Logger(),
	}
}

// FrameTranscript wraps a raw transcript in the interview framing expected by
// the derivation prompt and the chat context.
func FrameTranscript(transcript string) string {
	return fmt.Sprintf("\nInterview Question 1: Tell me your name and a bit about yourself.\nAnswer: %s\n", transcript)
}

// Derive generates a personality prompt from the framed interview
// transcript. If the model call fails, the generic fallback persona is
// returned as a degraded result rather than an error; a clone without a
// persona would be unusable.
func (d *Deriver) Derive(ctx context.Context, framedTranscript string) Result {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(derivationPrompt, framedTranscript)},
		},
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("Persona derivation failed, using fallback")
		return Fallback(FallbackPersona, fmt.Sprintf("derivation failed: %v", err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		d.logger.Warn().Msg("Empty persona response, using fallback")
		return Fallback(FallbackPersona, "empty model response")
	}

	d.logger.Info().Msg("Personality prompt derived")
	return Ok(resp.Choices[0].Message.Content)
}
