package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the egoavatar version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emitJSON(map[string]string{"version": Version})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
