package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// FilesTool handles the memory_files MCP tool.
type FilesTool struct {
	store *store.Store
}

// NewFilesTool creates a FilesTool.
func NewFilesTool(s *store.Store) *FilesTool {
	return &FilesTool{store: s}
}

// Definition returns the MCP tool definition for memory_files.
func (t *FilesTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_files",
		mcp.WithDescription(
			"Show a file's edit and read history across sessions, or the files "+
				"most recently touched when no file is given.",
		),
		mcp.WithString("file",
			mcp.Description("File path to show history for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 10, max: 30)"),
		),
	)
}

// Handle processes the memory_files tool call.
func (t *FilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := req.GetString("file", "")
	limit := intArg(req, "limit", 10)
	if limit > 30 {
		limit = 30
	}

	if file == "" {
		return t.recentFiles(limit)
	}

	turns, err := t.store.FileHistory(file, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("file history failed: %v", err)), nil
	}
	if len(turns) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No recorded history for %s.", file)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "History of %s (%d entries, newest first):\n\n", file, len(turns))
	for _, turn := range turns {
		fmt.Fprintf(&b, "- #%d (%s, %s)\n    %s\n",
			turn.ID, turn.Kind, turn.CreatedAt, store.Truncate(firstLine(turn.Content), 200))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// recentFiles lists the files most recently touched across all sessions,
// with touch counts and when each was last seen.
func (t *FilesTool) recentFiles(limit int) (*mcp.CallToolResult, error) {
	files, err := t.store.ActiveFiles("", limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load activity: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("No file activity recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recently touched files (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%d touches, last %s)\n", f.Path, f.Touches, f.LastTouched)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
