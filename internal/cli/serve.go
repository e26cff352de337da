package cli

import (
	"fmt"
	"os"

	recallserver "github.com/HendryAvila/recall/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Starts the MCP server over stdio, exposing the memory query tools to
the AI host. Also runs the file watcher and background task worker for
the current project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve project dir: %w", err)
		}

		s, cleanup, err := recallserver.New(projectDir)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		go checkForUpdates()

		return server.ServeStdio(s)
	},
}
