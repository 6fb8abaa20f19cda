package voice

import (
	"sync"
	"time"
)

// Message is one chat turn, role "user" or "assistant".
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// HistoryConfig configures conversation history retention.
type HistoryConfig struct {
	// MaxMessages is the number of messages passed to the model (default 10,
	// five exchanges).
	MaxMessages int
	// InactivityTimeout is the duration after which the context expires
	// (default: 5 minutes).
	InactivityTimeout time.Duration
}

// DefaultHistoryConfig returns sensible defaults.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		MaxMessages:       10,
		InactivityTimeout: 5 * time.Minute,
	}
}

// History tracks a bounded chat transcript per conversation. The full
// transcript is kept for the session; Recent returns the tail that fits the
// model context. A long pause expires the context: the next turn starts
// fresh rather than dragging in a stale topic.
type History struct {
	mu           sync.RWMutex
	messages     []Message
	lastActivity time.Time
	config       HistoryConfig
	now          func() time.Time
}

// NewHistory creates a conversation history with the given config.
func NewHistory(config HistoryConfig) *History {
	if config.MaxMessages <= 0 {
		config.MaxMessages = 10
	}
	if config.InactivityTimeout <= 0 {
		config.InactivityTimeout = 5 * time.Minute
	}
	return &History{
		config:       config,
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// AddExchange records one user/assistant turn pair. An expired context is
// cleared first.
func (h *History) AddExchange(userText, assistantText string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.expiredLocked() {
		h.messages = nil
	}

	now := h.now()
	h.messages = append(h.messages,
		Message{Role: "user", Content: userText, Time: now},
		Message{Role: "assistant", Content: assistantText, Time: now},
	)
	h.lastActivity = now
}

// Recent returns the last MaxMessages messages, oldest first, or nothing
// when the context has expired.
func (h *History) Recent() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.expiredLocked() {
		return nil
	}

	start := max(len(h.messages)-h.config.MaxMessages, 0)
	out := make([]Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}

// Len returns the total number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

func (h *History) expiredLocked() bool {
	return len(h.messages) > 0 && h.now().Sub(h.lastActivity) > h.config.InactivityTimeout
}
