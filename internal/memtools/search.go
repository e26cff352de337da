package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the memory_search MCP tool.
type SearchTool struct {
	store *store.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(s *store.Store) *SearchTool {
	return &SearchTool{store: s}
}

// Definition returns the MCP tool definition for memory_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription(
			"Search project memory across all sessions: past prompts, file edits, "+
				"commands, and distilled knowledge. Use this to find how something "+
				"was done before or what was decided about it.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query — natural language or keywords"),
		),
		mcp.WithString("kind",
			mcp.Description("Filter turns by kind: prompt, edit, read, bash, checkpoint"),
		),
		mcp.WithString("session",
			mcp.Description("Filter by session ID"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results per section (default: 10, max: 20)"),
		),
	)
}

// Handle processes the memory_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	kind := req.GetString("kind", "")
	session := req.GetString("session", "")
	limit := intArg(req, "limit", 10)
	if limit > 20 {
		limit = 20
	}

	turns, err := t.store.SearchTurns(query, store.TurnSearchOptions{
		Kind:      kind,
		SessionID: session,
		Limit:     limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	knowledge, err := t.store.SearchKnowledge(query, "", limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("knowledge search failed: %v", err)), nil
	}

	if len(turns) == 0 && len(knowledge) == 0 {
		return mcp.NewToolResultText("No memories found matching your query."), nil
	}

	var b strings.Builder
	if len(knowledge) > 0 {
		fmt.Fprintf(&b, "Knowledge (%d):\n", len(knowledge))
		for _, k := range knowledge {
			fmt.Fprintf(&b, "- [%s] %s: %s (confidence %.1f)\n",
				k.Category, k.Subject, store.Truncate(k.Content, 300), k.Confidence)
		}
		b.WriteString("\n")
	}
	if len(turns) > 0 {
		fmt.Fprintf(&b, "Session history (%d):\n", len(turns))
		for i, r := range turns {
			fileInfo := ""
			if len(r.Files) > 0 {
				fileInfo = " | files: " + strings.Join(r.Files, ", ")
			}
			fmt.Fprintf(&b, "[%d] #%d (%s, %s)%s\n    %s\n",
				i+1, r.ID, r.Kind, r.CreatedAt, fileInfo,
				store.Truncate(r.Content, 300))
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
