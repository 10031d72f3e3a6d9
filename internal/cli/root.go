package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "copilotd",
	Short: "Driving-safety voice command gateway",
	Long:  "Decides in real time which spoken commands may execute while driving,\nforces pause of playback when conditions demand it, and guarantees an\nalways-available emergency stop.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
