package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/avatar"
	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/genimage"
	"github.com/normanking/egoavatar/internal/gifanim"
)

var avatarsCmd = &cobra.Command{
	Use:   "avatars",
	Short: "Generate and inspect session avatars",
}

var avatarsGenerateCmd = &cobra.Command{
	Use:   "generate <session-id>",
	Short: "Generate the portrait set, stop-motion frames and GIFs for a session",
	Long: `Runs the full avatar pipeline for a captured session: the neutral base
portrait, the happy/sad/angry expression variants, the mouth-shape stop-motion
frames, and one looping GIF per emotion.

The session photo directory must hold photo-1.jpg through photo-4.jpg.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if err := cfg.Require(config.CredGemini); err != nil {
			return err
		}

		gemini := genimage.NewClient(logger, &genimage.ClientConfig{
			APIKey:  cfg.Image.GeminiAPIKey,
			Model:   cfg.Image.Model,
			Timeout: cfg.Image.Timeout,
		})
		assembler := gifanim.NewAssembler(gifanim.Config{
			MaxFrameSize:  cfg.Image.MaxFrameSize,
			FrameDuration: cfg.Image.FrameDuration,
		}, logger)

		service := avatar.NewService(
			avatar.NewGenerator(gemini, logger),
			avatar.NewPuppeteer(gemini, cfg.Image.VariationDelay, logger),
			assembler,
			avatar.ServiceConfig{VariationCount: cfg.Image.VariationCount},
			logger,
		)

		result := service.GenerateForSession(cmd.Context(), sessionID, cfg.SessionPhotoDir(sessionID), cfg.Data.AvatarsDir)
		if err := emitJSON(result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("avatar generation failed: %s", result.Error)
		}
		return nil
	},
}

var avatarsStatusCmd = &cobra.Command{
	Use:   "status <session-id>",
	Short: "Report whether a session's animations are pending, processing or complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		// Status only inspects the filesystem, no generator needed.
		service := avatar.NewService(nil, nil, nil, avatar.ServiceConfig{}, logger)
		return emitJSON(service.Status(args[0], cfg.Data.AvatarsDir))
	},
}

func init() {
	avatarsCmd.AddCommand(avatarsGenerateCmd)
	avatarsCmd.AddCommand(avatarsStatusCmd)
	rootCmd.AddCommand(avatarsCmd)
}
