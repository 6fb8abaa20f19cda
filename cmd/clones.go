package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/store"
)

var clonesCmd = &cobra.Command{
	Use:   "clones",
	Short: "Inspect and manage stored voice clones",
}

var clonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored voice clones, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Data.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open clone store: %w", err)
		}
		defer st.Close()

		clones, err := st.List()
		if err != nil {
			return fmt.Errorf("list clones: %w", err)
		}

		summaries := make([]cloneSummary, 0, len(clones))
		for _, c := range clones {
			summaries = append(summaries, cloneSummary{
				VoiceID:           c.VoiceID,
				UserName:          c.UserName,
				SessionID:         c.SessionID,
				Status:            c.Status,
				CreatedAt:         c.CreatedAt,
				TranscriptPreview: preview(c.InterviewTranscription, 100),
			})
		}
		return emitJSON(map[string]any{"clones": summaries, "count": len(summaries)})
	},
}

// cloneSummary is the listing shape: full transcripts and personality prompts
// stay out of the listing.
type cloneSummary struct {
	VoiceID           string    `json:"voice_id"`
	UserName          string    `json:"user_name"`
	SessionID         string    `json:"session_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	TranscriptPreview string    `json:"transcript_preview,omitempty"`
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var clonesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored voice clone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Data.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open clone store: %w", err)
		}
		defer st.Close()

		deleted, err := st.ClearAll()
		if err != nil {
			return fmt.Errorf("clear clones: %w", err)
		}
		return emitJSON(map[string]any{"success": true, "deleted": deleted})
	},
}

func init() {
	clonesCmd.AddCommand(clonesListCmd)
	clonesCmd.AddCommand(clonesClearCmd)
	rootCmd.AddCommand(clonesCmd)
}
