// Package cli defines the recall command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Persistent project memory for AI coding sessions",
	Long: `recall records what happens in AI coding sessions — prompts, file
edits, commands — into a per-project SQLite database, distills durable
knowledge from it, and injects the relevant parts back into new sessions.

Hooks write memory; the MCP server answers queries about it.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
