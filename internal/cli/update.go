package cli

import (
	"fmt"
	"os"

	recallserver "github.com/HendryAvila/recall/internal/server"
	"github.com/HendryAvila/recall/internal/updater"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.Version = recallserver.Version
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update recall to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(os.Stderr, "Checking for updates...")

		result := updater.CheckVersion(recallserver.Version)
		if !result.UpdateAvailable {
			fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
			return nil
		}

		fmt.Fprintf(os.Stderr, "Updating v%s -> v%s...\n", result.CurrentVersion, result.LatestVersion)
		if err := updater.SelfUpdate(recallserver.Version); err != nil {
			return fmt.Errorf("update failed: %w (download manually from %s)", err, result.ReleaseURL)
		}
		fmt.Fprintf(os.Stderr, "Updated to v%s. Restart any running server to use it.\n", result.LatestVersion)
		return nil
	},
}

// checkForUpdates prints a notice to stderr when a newer release exists.
// Best effort, run in a goroutine during serve; stderr keeps it off the
// MCP stdio transport.
func checkForUpdates() {
	result := updater.CheckVersion(recallserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  Update available: v%s -> v%s\n  Run: recall update\n\n",
			result.CurrentVersion, result.LatestVersion,
		)
	}
}
