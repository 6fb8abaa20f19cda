package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/store"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain <voice-id>",
	Short: "Rebuild a voice clone from recent conversation audio",
	Long: `Rebuilds the voice from the clone's archived conversation audio of the
last 24 hours. The old voice row is archived and a fresh active row carries
the personality and interview transcript forward under the new voice ID.

Retraining needs at least three recent samples and uses at most ten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voiceID := args[0]

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.Require(config.CredElevenLabs, config.CredOpenAI); err != nil {
			return err
		}

		st, err := store.Open(cfg.Data.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open clone store: %w", err)
		}
		defer st.Close()

		service := newCloneService(cfg, st, logger, filepath.Join(cfg.Voice.ArchiveDir, voiceID))
		result := service.Retrain(cmd.Context(), voiceID)
		if err := emitJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("retraining failed: %s", result.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retrainCmd)
}
