package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// DecisionsTool handles the memory_decisions MCP tool.
type DecisionsTool struct {
	store *store.Store
}

// NewDecisionsTool creates a DecisionsTool.
func NewDecisionsTool(s *store.Store) *DecisionsTool {
	return &DecisionsTool{store: s}
}

// Definition returns the MCP tool definition for memory_decisions.
func (t *DecisionsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_decisions",
		mcp.WithDescription(
			"List distilled project knowledge: decisions, conventions, preferences, "+
				"past bugfixes, patterns, and architecture notes. Check this before "+
				"proposing a technology or style choice.",
		),
		mcp.WithString("category",
			mcp.Description("Filter by category: decision, convention, preference, bugfix, pattern, architecture"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries (default: 20, max: 50)"),
		),
	)
}

// Handle processes the memory_decisions tool call.
func (t *DecisionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	if category != "" && !store.ValidCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
	}
	limit := intArg(req, "limit", 20)
	if limit > 50 {
		limit = 50
	}

	var (
		entries []store.KnowledgeEntry
		err     error
	)
	if category != "" {
		entries, err = t.store.KnowledgeByCategory(category, 0, limit)
	} else {
		entries, err = t.store.AllKnowledge(limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load knowledge: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No knowledge recorded yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d knowledge entries:\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s: %s\n    confidence %.1f, source %s, last confirmed %s\n",
			e.Category, e.Subject, store.Truncate(e.Content, 300),
			e.Confidence, e.Source, e.LastConfirmed)
	}
	return mcp.NewToolResultText(b.String()), nil
}
