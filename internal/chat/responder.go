// Package chat generates in-character responses from a clone and keeps its
// persona growing across conversations.
package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/normanking/egoavatar/internal/persona"
	"github.com/normanking/egoavatar/internal/store"
	"github.com/normanking/egoavatar/internal/stt"
	"github.com/normanking/egoavatar/internal/voice"
)

// ClarificationFallback is spoken when the clarification request itself
// cannot be generated.
const ClarificationFallback = "Sorry, I didn't catch that. Could you repeat what you said?"

const characterReminder = `

REFERENCE - Your Own Words from the Interview:
%s

CRITICAL REMINDER:
- You ARE this person, not an AI assistant
- You have real feelings, experiences, and opinions
- NEVER say "As an AI" or "I don't have feelings/preferences"
- Keep responses SHORT (2-3 sentences) unless asked for more detail
- Answer naturally as yourself based on your background
- Stay in character at all times`

const clarificationPrompt = `%s

IMPORTANT: The user's speech was unclear or too quiet. You need to politely ask them to repeat themselves.

Generate a SHORT, friendly response (1-2 sentences) asking them to speak more clearly or repeat what they said. Be natural and conversational.

Examples of good responses:
- "Sorry, I didn't catch that. Could you say that again?"
- "I didn't quite hear you clearly. Can you repeat that?"
- "Could you speak a bit louder? I missed what you said."

Keep it natural and in your own voice/personality.`

// Result is one chat turn outcome, marshaled to stdout by the CLI.
type Result struct {
	Response      string `json:"ai_response,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
	Clarification bool   `json:"clarification,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Config holds chat configuration
type Config struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	OutputDir   string  `json:"output_dir"`  // synthesized responses served from here
	ArchiveDir  string  `json:"archive_dir"` // per-voice copies kept for retraining
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4,
		Temperature: 0.7,
		MaxTokens:   150,
	}
}

// Responder produces in-character chat turns with synthesized audio.
type Responder struct {
	store  *store.Store
	chat   persona.ChatCompleter
	synth  voice.Cloner
	filter *stt.ClarityFilter
	cfg    Config
	logger zerolog.Logger
}

// NewResponder wires the chat dependencies.
func NewResponder(st *store.Store, chat persona.ChatCompleter, synth voice.Cloner, cfg Config, logger zerolog.Logger) *Responder {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}
	return &Responder{
		store:  st,
		chat:   chat,
		synth:  synth,
		filter: stt.NewClarityFilter(nil),
		cfg:    cfg,
		logger: logger.With().Str("component", "chat").Logger(),
	}
}

// Respond produces one chat turn. Unintelligible input yields an
// in-character clarification request instead of a normal reply. Only the
// active identity may chat: an unknown or archived voice ID is an error
// before any vendor call is made.
func (r *Responder) Respond(ctx context.Context, voiceID, userMessage string, history []voice.Message) *Result {
	clone, err := r.store.ActiveByVoiceID(voiceID)
	if err != nil {
		return &Result{Error: "Voice clone not found"}
	}

	if r.filter.Unintelligible(userMessage) {
		return r.clarify(ctx, clone)
	}

	systemPrompt := clone.PersonalityPrompt
	if clone.InterviewTranscription != "" {
		systemPrompt += fmt.Sprintf(characterReminder, clone.InterviewTranscription)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage})

	resp, err := r.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil || len(resp.Choices) == 0 {
		r.logger.Error().Err(err).Msg("Chat completion failed")
		return &Result{Error: "Failed to generate AI response"}
	}
	reply := resp.Choices[0].Message.Content

	audioURL := r.speak(ctx, voiceID, reply)

	return &Result{Response: reply, AudioURL: audioURL}
}

// clarify asks the user to repeat themselves, in the clone's own voice.
func (r *Responder) clarify(ctx context.Context, clone *store.VoiceClone) *Result {
	reply := ClarificationFallback

	resp, err := r.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(clarificationPrompt, clone.PersonalityPrompt)},
		},
		Temperature: r.cfg.Temperature,
		MaxTokens:   50,
	})
	if err == nil && len(resp.Choices) > 0 && strings.TrimSpace(resp.Choices[0].Message.Content) != "" {
		reply = resp.Choices[0].Message.Content
	} else {
		r.logger.Warn().Err(err).Msg("Clarification generation failed, using fixed reply")
	}

	audioURL := r.speak(ctx, clone.VoiceID, reply)
	return &Result{Response: reply, AudioURL: audioURL, Clarification: true}
}

// speak synthesizes the reply and writes it under the output directory. The
// archive copy feeds later retraining; its failure is logged and swallowed.
// Synthesis failure returns an empty URL, the text reply still stands.
func (r *Responder) speak(ctx context.Context, voiceID, text string) string {
	if r.cfg.OutputDir == "" {
		return ""
	}

	audio, err := r.synth.Synthesize(ctx, voiceID, text)
	if err != nil {
		r.logger.Error().Err(err).Msg("Speech synthesis failed")
		return ""
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
		r.logger.Error().Err(err).Msg("Failed to create output directory")
		return ""
	}

	shortID := voiceID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	filename := fmt.Sprintf("response_%s_%d_%s.mp3", shortID, time.Now().UnixMilli(), uuid.NewString()[:8])
	outPath := filepath.Join(r.cfg.OutputDir, filename)
	if err := os.WriteFile(outPath, audio, 0644); err != nil {
		r.logger.Error().Err(err).Msg("Failed to write response audio")
		return ""
	}

	if r.cfg.ArchiveDir != "" {
		archiveDir := filepath.Join(r.cfg.ArchiveDir, voiceID)
		if err := os.MkdirAll(archiveDir, 0755); err == nil {
			err = os.WriteFile(filepath.Join(archiveDir, filename), audio, 0644)
		}
		if err != nil {
			r.logger.Warn().Err(err).Msg("Failed to archive response audio")
		}
	}

	return "/generated/" + filename
}
