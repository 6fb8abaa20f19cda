// Package cmd implements the egoavatar command line interface. Every
// command prints exactly one JSON result line on stdout; diagnostics go to
// stderr.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/config"
	"github.com/normanking/egoavatar/internal/logging"
)

var (
	logLevel string
	logDir   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "egoavatar",
	Short: "Personal avatar pipeline: capture, generate, clone, chat",
	Long: `egoavatar builds a digital double from a webcam session.

It captures your four calibration expressions, generates a portrait set and
animated avatars with Gemini, clones your voice with ElevenLabs, derives a
personality from your interview, and then chats back as you - in your own
voice.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for log files (empty disables)")
}

// setup loads configuration and builds the shared logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logDir != "" {
		cfg.Log.Dir = logDir
	}

	logger, err := logging.New(&logging.Config{
		LogDir:  cfg.Log.Dir,
		Level:   logging.LogLevel(cfg.Log.Level),
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logging: %w", err)
	}

	return cfg, logger, nil
}

// emitJSON writes the single result line every command contract requires.
func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
