package memtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the memory_status MCP tool.
type StatusTool struct {
	store *store.Store
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(s *store.Store) *StatusTool {
	return &StatusTool{store: s}
}

// Definition returns the MCP tool definition for memory_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_status",
		mcp.WithDescription(
			"Show memory system statistics: sessions, recorded turns, indexed "+
				"symbols by kind with a sample, knowledge entries, and recent "+
				"hook activity.",
		),
	)
}

// Handle processes the memory_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.GetStats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("## Memory Status\n\n")
	fmt.Fprintf(&b, "- **Sessions**: %d\n", stats.Sessions)
	fmt.Fprintf(&b, "- **Turns**: %d", stats.Turns)
	if len(stats.TurnsByKind) > 0 {
		kinds := make([]string, 0, len(stats.TurnsByKind))
		for kind := range stats.TurnsByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		var parts []string
		for _, kind := range kinds {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, stats.TurnsByKind[kind]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Symbols**: %d across %d files", stats.Symbols, stats.IndexedFiles)
	if kinds, err := t.store.SymbolCountsByKind(); err == nil && len(kinds) > 0 {
		names := make([]string, 0, len(kinds))
		for kind := range kinds {
			names = append(names, kind)
		}
		sort.Strings(names)
		var parts []string
		for _, kind := range names {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, kinds[kind]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Knowledge entries**: %d\n", stats.Knowledge)

	if sample, err := t.store.SearchSymbols("", "", "", 5); err == nil && len(sample) > 0 {
		b.WriteString("\n### Sample symbols\n")
		for _, sym := range sample {
			fmt.Fprintf(&b, "- %s (%s) %s:%d-%d\n",
				sym.Name, sym.Kind, sym.FilePath, sym.StartLine, sym.EndLine)
		}
	}

	activity, err := t.store.RecentHookActivity(10)
	if err == nil && len(activity) > 0 {
		b.WriteString("\n### Recent hook activity\n")
		for _, a := range activity {
			status := "ok"
			if !a.OK {
				status = "FAILED: " + a.Detail
			}
			fmt.Fprintf(&b, "- %s %s (%s)\n", a.CreatedAt, a.Hook, status)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
