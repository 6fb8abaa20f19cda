package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/egoavatar/internal/chat"
	"github.com/normanking/egoavatar/internal/voice"
)

func TestParseHistoryEmpty(t *testing.T) {
	history, err := parseHistory("", 10)
	require.NoError(t, err)
	assert.Nil(t, history)
}

func TestParseHistoryDecodesTurns(t *testing.T) {
	raw := `[{"role":"user","content":"hi"},{"role":"assistant","content":"hey"}]`
	history, err := parseHistory(raw, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hey", history[1].Content)
}

func TestParseHistoryKeepsMostRecentTurns(t *testing.T) {
	raw := `[{"role":"user","content":"one"},{"role":"assistant","content":"two"},{"role":"user","content":"three"}]`
	history, err := parseHistory(raw, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[1].Content)
}

func TestParseHistoryRejectsInvalidJSON(t *testing.T) {
	_, err := parseHistory("{not json", 10)
	assert.Error(t, err)
}

func TestInteractiveChatCarriesContext(t *testing.T) {
	var historyLens []int
	respond := func(ctx context.Context, message string, history []voice.Message) *chat.Result {
		historyLens = append(historyLens, len(history))
		return &chat.Result{Response: "reply to " + message}
	}

	input := strings.NewReader("hello\n\nhow are you\nexit\nnever reached\n")
	err := interactiveChat(context.Background(), respond, 10, input)
	require.NoError(t, err)

	// Blank line skipped, "exit" stops the loop, and the second turn sees
	// the first exchange as context.
	assert.Equal(t, []int{0, 2}, historyLens)
}

func TestInteractiveChatClarificationLeavesContext(t *testing.T) {
	var historyLens []int
	respond := func(ctx context.Context, message string, history []voice.Message) *chat.Result {
		historyLens = append(historyLens, len(history))
		if message == "uh um" {
			return &chat.Result{Response: "Could you repeat that?", Clarification: true}
		}
		return &chat.Result{Response: "sure"}
	}

	input := strings.NewReader("uh um\ntell me a story\n")
	err := interactiveChat(context.Background(), respond, 10, input)
	require.NoError(t, err)

	// The clarification turn is not recorded as an exchange.
	assert.Equal(t, []int{0, 0}, historyLens)
}

func TestInteractiveChatStopsOnError(t *testing.T) {
	calls := 0
	respond := func(ctx context.Context, message string, history []voice.Message) *chat.Result {
		calls++
		return &chat.Result{Error: "Voice clone not found"}
	}

	input := strings.NewReader("hello\nstill there?\n")
	err := interactiveChat(context.Background(), respond, 10, input)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
