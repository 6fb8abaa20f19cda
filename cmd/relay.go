package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/normanking/egoavatar/internal/emotion"
	"github.com/normanking/egoavatar/internal/relay"
	"github.com/normanking/egoavatar/internal/vision"
)

var relayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Stream annotated camera frames over WebSocket",
	Long: `Serves the live camera feed to a browser over WebSocket at /ws. Every
frame is annotated with the detected face box; every Nth frame is classified
and the latest emotion readings ride along with each frame.

The camera is a single physical resource, so one client at a time; a second
connection is refused. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		source, err := vision.NewMJPEGSource(ctx, cfg.Capture.CameraURL, 10*time.Second, logger)
		if err != nil {
			return err
		}
		defer source.Close()

		classifier := emotion.NewClient(logger, &emotion.ClientConfig{
			BaseURL: cfg.Capture.ClassifierURL,
			Timeout: 10 * time.Second,
		})

		addr := cfg.Relay.Addr
		if relayAddr != "" {
			addr = relayAddr
		}
		server := relay.NewServer(source, classifier, relay.Config{
			Addr:          addr,
			AnalyzeEveryN: cfg.Relay.AnalyzeEveryN,
			FrameInterval: cfg.Relay.FrameInterval,
		}, logger)

		return server.Run(ctx)
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayAddr, "addr", "", "override the listen address")
	rootCmd.AddCommand(relayCmd)
}
