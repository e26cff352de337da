// recall: persistent project memory for AI coding sessions.
//
// Hooks record prompts, edits, reads, and commands into a per-project
// SQLite database; an MCP server (stdio transport) answers queries
// about it.
//
// Usage:
//
//	recall serve          # Start the MCP server
//	recall hook <kind>    # Process one hook event (called by the host)
//	recall status         # Show memory statistics
//	recall disable        # Global kill switch
package main

import "github.com/HendryAvila/recall/internal/cli"

func main() {
	cli.Execute()
}
