package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// SymbolsTool handles the memory_symbols MCP tool.
type SymbolsTool struct {
	store *store.Store
}

// NewSymbolsTool creates a SymbolsTool.
func NewSymbolsTool(s *store.Store) *SymbolsTool {
	return &SymbolsTool{store: s}
}

// Definition returns the MCP tool definition for memory_symbols.
func (t *SymbolsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_symbols",
		mcp.WithDescription(
			"Look up code symbols (functions, types, classes) in the project's "+
				"symbol index without reading files. Returns name, kind, file, and "+
				"line range.",
		),
		mcp.WithString("name",
			mcp.Description("Symbol name substring to match"),
		),
		mcp.WithString("file",
			mcp.Description("File path substring to match"),
		),
		mcp.WithString("kind",
			mcp.Description("Filter by kind: function, method, class, struct, interface, enum, trait, type"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20, max: 50)"),
		),
	)
}

// Handle processes the memory_symbols tool call.
func (t *SymbolsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	file := req.GetString("file", "")
	kind := req.GetString("kind", "")
	if name == "" && file == "" && kind == "" {
		return mcp.NewToolResultError("provide at least one of 'name', 'file', or 'kind'"), nil
	}
	limit := intArg(req, "limit", 20)
	if limit > 50 {
		limit = 50
	}

	symbols, err := t.store.SearchSymbols(name, file, kind, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("symbol search failed: %v", err)), nil
	}
	if len(symbols) == 0 {
		return mcp.NewToolResultText("No symbols found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d symbols:\n\n", len(symbols))
	for _, sym := range symbols {
		line := fmt.Sprintf("- %s (%s) %s:%d-%d", sym.Name, sym.Kind, sym.FilePath, sym.StartLine, sym.EndLine)
		if sym.Signature != "" {
			line += "\n    " + sym.Signature
		}
		b.WriteString(line + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
