package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/persona"
	"github.com/normanking/egoavatar/internal/store"
	"github.com/normanking/egoavatar/internal/stt"
	"github.com/normanking/egoavatar/internal/voice"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var cloneUserName string

var cloneCmd = &cobra.Command{
	Use:   "clone <session-id>",
	Short: "Create a voice clone from the interview recording",
	Long: `Creates an ElevenLabs voice clone from the most recent interview audio
in the uploads directory, transcribes it with Whisper, derives a personality
prompt from the transcript, and stores the active clone row.

Transcription and persona derivation degrade rather than fail: if either is
unavailable the clone is still created with a generic persona, and the result
reports degraded: true with the reason.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

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

		service := newCloneService(cfg, st, logger, cfg.Voice.ArchiveDir)
		result := service.CreateForSession(cmd.Context(), sessionID, cloneUserName)
		if err := emitJSON(result); err != nil {
			return err
		}
		if result.Status != "success" {
			return fmt.Errorf("clone creation failed: %s", result.Error)
		}
		return nil
	},
}

// newCloneService wires the clone lifecycle from configuration. Shared by the
// clone and retrain commands; retrain narrows voiceMessagesDir to the archive
// subdirectory of the voice being retrained.
func newCloneService(cfg *config.Config, st *store.Store, logger zerolog.Logger, voiceMessagesDir string) *voice.Service {
	cloner := voice.NewElevenLabsProvider(logger, &voice.ElevenLabsConfig{
		APIKey:  cfg.Voice.ElevenLabsAPIKey,
		ModelID: cfg.Voice.ModelID,
	})
	transcriber := stt.NewWhisperProvider(logger, &stt.WhisperConfig{
		APIKey:  cfg.Chat.OpenAIAPIKey,
		Timeout: cfg.Voice.Timeout,
	})
	deriver := persona.NewDeriver(openai.NewClient(cfg.Chat.OpenAIAPIKey), nil, logger)

	return voice.NewService(cloner, transcriber, deriver, st, voice.ServiceConfig{
		UploadsDir:       cfg.Data.UploadsDir,
		VoiceMessagesDir: voiceMessagesDir,
	}, logger)
}

func init() {
	cloneCmd.Flags().StringVar(&cloneUserName, "name", "User", "display name for the cloned voice")
	rootCmd.AddCommand(cloneCmd)
}
