package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/normanking/egoavatar/internal/persona"
	"github.com/normanking/egoavatar/internal/store"
)

// noNewLearning is the sentinel the analysis model emits when a conversation
// carried nothing worth remembering.
const noNewLearning = "NO_NEW_LEARNING"

const learningPrompt = `Analyze this conversation and extract any NEW information learned about the user or context that should be remembered.

Current Personality/Knowledge:
%s

Latest Conversation:
User: %s
AI: %s

Task: Extract ONLY new, meaningful information that should be added to the AI's knowledge base.
- User preferences, interests, or facts about them
- Important context that should be remembered
- Corrections or clarifications
- Do NOT repeat existing information
- Keep it concise (1-3 sentences max)

If there's nothing new to learn, respond with: "NO_NEW_LEARNING"

New learning:`

// LearnResult reports whether anything was extracted and stored.
type LearnResult struct {
	Success  bool   `json:"success"`
	Learned  bool   `json:"learned"`
	Learning string `json:"learning,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Learner extracts new facts from conversations and appends them to the
// active persona.
type Learner struct {
	store  *store.Store
	chat   persona.ChatCompleter
	now    func() time.Time
	logger zerolog.Logger
}

// NewLearner creates a conversation learner.
func NewLearner(st *store.Store, chat persona.ChatCompleter, logger zerolog.Logger) *Learner {
	return &Learner{
		store:  st,
		chat:   chat,
		now:    time.Now,
		logger: logger.With().Str("component", "learner").Logger(),
	}
}

// Learn analyzes one exchange and, when something new surfaced, appends a
// timestamped learning block to the active persona. The sentinel reply
// leaves the store untouched.
func (l *Learner) Learn(ctx context.Context, voiceID, userMessage, aiResponse string) *LearnResult {
	clone, err := l.store.ActiveByVoiceID(voiceID)
	if err != nil {
		return &LearnResult{Success: false, Error: "Voice not found"}
	}

	resp, err := l.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(learningPrompt, clone.PersonalityPrompt, userMessage, aiResponse)},
		},
		Temperature: 0.3,
		MaxTokens:   150,
	})
	if err != nil || len(resp.Choices) == 0 {
		l.logger.Warn().Err(err).Msg("Learning analysis failed")
		return &LearnResult{Success: true, Learned: false, Message: "No new information"}
	}

	learning := strings.TrimSpace(resp.Choices[0].Message.Content)
	if learning == "" || learning == noNewLearning {
		l.logger.Debug().Str("voice", voiceID).Msg("No new learning from conversation")
		return &LearnResult{Success: true, Learned: false, Message: "No new information"}
	}

	updated := fmt.Sprintf("%s\n\nLEARNED FROM CONVERSATIONS (Updated %s):\n%s",
		clone.PersonalityPrompt, l.now().Format("2006-01-02 15:04"), learning)
	if err := l.store.UpdateActivePersonality(voiceID, updated); err != nil {
		return &LearnResult{Success: false, Error: "Failed to update personality"}
	}

	l.logger.Info().Str("voice", voiceID).Msg("Personality updated from conversation")
	return &LearnResult{Success: true, Learned: true, Learning: learning}
}
