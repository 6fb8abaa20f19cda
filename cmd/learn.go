package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/chat"
	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/store"

	openai "github.com/sashabaranov/go-openai"
)

var learnCmd = &cobra.Command{
	Use:   "learn <voice-id> <user-message> <ai-response>",
	Short: "Extract new personal facts from a conversation turn",
	Long: `Analyzes one completed conversation turn for new personal information
about the user and appends anything learned to the active clone's personality
prompt. A turn with nothing new is a success that changes nothing.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		voiceID, userMessage, aiResponse := args[0], args[1], args[2]

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.Require(config.CredOpenAI); err != nil {
			return err
		}

		st, err := store.Open(cfg.Data.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open clone store: %w", err)
		}
		defer st.Close()

		learner := chat.NewLearner(st, openai.NewClient(cfg.Chat.OpenAIAPIKey), logger)
		result := learner.Learn(cmd.Context(), voiceID, userMessage, aiResponse)
		if err := emitJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("learning failed: %s", result.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
}
