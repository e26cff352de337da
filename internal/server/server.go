// Package server wires the MCP server and its background workers.
//
// This is the composition root: it opens the store, builds the indexer,
// watcher, and task executor, and registers the memory tools. No business
// logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"log"

	"github.com/HendryAvila/recall/internal/config"
	"github.com/HendryAvila/recall/internal/distill"
	"github.com/HendryAvila/recall/internal/memtools"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
	"github.com/HendryAvila/recall/internal/tasks"
	"github.com/HendryAvila/recall/internal/watcher"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server for a project directory with all memory
// tools registered, and starts the file watcher and the background task
// worker.
//
// The returned cleanup function stops the workers and closes the store.
// It is always non-nil and safe to call even when setup partially failed.
func New(projectDir string) (*server.MCPServer, func(), error) {
	st, err := store.Open(store.DefaultConfig(projectDir))
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}

	ix, err := symbols.New(st, projectDir, nil)
	if err != nil {
		_ = st.Close()
		return nil, noop, fmt.Errorf("creating indexer: %w", err)
	}

	// First run against this project: build the symbol index up front so
	// the tools have something to answer with.
	if files, err := st.IndexedFiles(); err == nil && len(files) == 0 {
		if n, err := ix.IndexProject(); err != nil {
			log.Printf("WARNING: initial index: %v", err)
		} else {
			log.Printf("indexed %d files", n)
		}
	}

	s := server.NewMCPServer(
		"recall",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	registerMemoryTools(s, st)

	ctx, cancel := context.WithCancel(context.Background())

	// The watcher is best effort: without it, edits still reindex through
	// hooks and queued stale reindexes.
	w, werr := watcher.New(ix)
	if werr != nil {
		log.Printf("WARNING: file watcher disabled: %v", werr)
	} else {
		go w.Run(ctx)
	}

	go newTaskExecutor(st, ix, projectDir).Poll(ctx)

	cleanup := func() {
		cancel()
		if w != nil {
			_ = w.Close()
		}
		if err := st.Close(); err != nil {
			log.Printf("WARNING: store close: %v", err)
		}
	}
	return s, cleanup, nil
}

// noop is the default cleanup when setup fails early.
func noop() {}

// newTaskExecutor builds the background worker with the configured
// distillation strategy.
func newTaskExecutor(st *store.Store, ix *symbols.Indexer, projectDir string) *tasks.Executor {
	var primary distill.Strategy
	if cfg, err := config.Load(projectDir); err != nil {
		log.Printf("WARNING: config: %v", err)
	} else if cfg.ExternalEnabled() {
		primary = distill.NewExternalModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	}
	return tasks.NewExecutor(st, ix, distill.New(st, primary))
}

// registerMemoryTools registers the five memory MCP tools.
func registerMemoryTools(s *server.MCPServer, st *store.Store) {
	searchTool := memtools.NewSearchTool(st)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	symbolsTool := memtools.NewSymbolsTool(st)
	s.AddTool(symbolsTool.Definition(), symbolsTool.Handle)

	decisionsTool := memtools.NewDecisionsTool(st)
	s.AddTool(decisionsTool.Definition(), decisionsTool.Handle)

	filesTool := memtools.NewFilesTool(st)
	s.AddTool(filesTool.Definition(), filesTool.Handle)

	statusTool := memtools.NewStatusTool(st)
	s.AddTool(statusTool.Definition(), statusTool.Handle)
}

// serverInstructions tells the AI how to use the memory tools.
func serverInstructions() string {
	return `You have access to recall, a persistent project memory.

recall records what happens in coding sessions on this project — prompts,
file edits, commands, and distilled knowledge — and lets you query it.
All tools are read-only: memory is written automatically by hooks.

## When to use the tools

- memory_search: At the start of a task, or when the user references
  past work ("like we did before", "the bug from last week"). Searches
  prompts, edits, commands, and distilled knowledge across all sessions.
- memory_decisions: BEFORE proposing a technology, library, or style
  choice. If a decision or convention already exists, follow it instead
  of re-deciding.
- memory_symbols: To locate a function, type, or class without reading
  files. Returns file and line range.
- memory_files: To see a file's history across sessions, or which files
  were touched recently.
- memory_status: To check what the memory system knows and whether
  hooks are running.

## Rules

- Prefer memory_decisions over guessing project conventions.
- Results reflect recorded sessions only — absence of a memory does not
  mean absence of a fact.
- Do not ask the user to save memories; recording is automatic.`
}
