package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/chat"
	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/store"
	"github.com/normanking/egoavatar/internal/voice"

	openai "github.com/sashabaranov/go-openai"
)

var chatHistoryJSON string

var chatCmd = &cobra.Command{
	Use:   "chat <voice-id> [message]",
	Short: "Chat with a voice clone, in character and in voice",
	Long: `Generates in-character replies from the clone behind the given voice ID
and synthesizes them in the cloned voice. Unintelligible input yields a
polite clarification request instead of a reply.

With a message argument, one turn is generated and one JSON result line is
printed. Pass prior turns with --history as a JSON array of {"role",
"content"} objects; only the most recent turns are forwarded to the model.

Without a message, an interactive session reads one message per line from
stdin and prints one JSON result line per turn. The conversation context is
bounded and expires after a few minutes of silence; blank lines are skipped
and "exit" or end of input ends the session.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		voiceID := args[0]

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.Require(config.CredOpenAI, config.CredElevenLabs); err != nil {
			return err
		}

		st, err := store.Open(cfg.Data.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open clone store: %w", err)
		}
		defer st.Close()

		synth := voice.NewElevenLabsProvider(logger, &voice.ElevenLabsConfig{
			APIKey:  cfg.Voice.ElevenLabsAPIKey,
			ModelID: cfg.Voice.ModelID,
		})
		responder := chat.NewResponder(st, openai.NewClient(cfg.Chat.OpenAIAPIKey), synth, chat.Config{
			Model:       cfg.Chat.Model,
			Temperature: float32(cfg.Chat.Temperature),
			MaxTokens:   cfg.Chat.MaxTokens,
			OutputDir:   cfg.Voice.ResponsesDir,
			ArchiveDir:  cfg.Voice.ArchiveDir,
		}, logger)

		if len(args) == 1 {
			respond := func(ctx context.Context, message string, history []voice.Message) *chat.Result {
				return responder.Respond(ctx, voiceID, message, history)
			}
			return interactiveChat(cmd.Context(), respond, cfg.Chat.HistoryTurns, os.Stdin)
		}

		history, err := parseHistory(chatHistoryJSON, cfg.Chat.HistoryTurns)
		if err != nil {
			return err
		}

		result := responder.Respond(cmd.Context(), voiceID, args[1], history)
		if err := emitJSON(result); err != nil {
			return err
		}
		if result.Error != "" {
			return fmt.Errorf("chat failed: %s", result.Error)
		}
		return nil
	},
}

// interactiveChat loops turns from the input stream, one message per line,
// carrying a bounded, inactivity-expiring context between turns.
func interactiveChat(ctx context.Context, respond func(context.Context, string, []voice.Message) *chat.Result, historyTurns int, in io.Reader) error {
	history := voice.NewHistory(voice.HistoryConfig{MaxMessages: historyTurns})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			return nil
		}

		result := respond(ctx, message, history.Recent())
		if err := emitJSON(result); err != nil {
			return err
		}
		if result.Error != "" {
			return fmt.Errorf("chat failed: %s", result.Error)
		}
		if !result.Clarification {
			history.AddExchange(message, result.Response)
		}
	}
	return scanner.Err()
}

// parseHistory decodes the history flag and keeps the most recent maxTurns
// messages.
func parseHistory(raw string, maxTurns int) ([]voice.Message, error) {
	if raw == "" {
		return nil, nil
	}
	var history []voice.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	if maxTurns > 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	return history, nil
}

func init() {
	chatCmd.Flags().StringVar(&chatHistoryJSON, "history", "", "prior conversation as a JSON array of {role, content} objects")
	rootCmd.AddCommand(chatCmd)
}
