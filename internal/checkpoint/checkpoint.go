// Package checkpoint snapshots session state before the host compacts
// its context window.
package checkpoint

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
)

// Header marks checkpoint content in turns and injected context.
const Header = "[Pre-Compaction Checkpoint]"

const (
	maxTasks       = 10
	maxFiles       = 15
	maxRecentEdits = 5
)

// Checkpointer builds and stores pre-compaction checkpoints.
type Checkpointer struct {
	store *store.Store
}

// New creates a Checkpointer.
func New(s *store.Store) *Checkpointer {
	return &Checkpointer{store: s}
}

// Run flushes pending writes and records a checkpoint for the session.
// The flush is the only step that can fail the checkpoint; summary
// synthesis is best effort and an empty summary is valid.
func (c *Checkpointer) Run(sessionID string) (int64, error) {
	if err := c.store.Flush(); err != nil {
		return 0, fmt.Errorf("checkpoint: flush: %w", err)
	}

	summary := c.synthesize(sessionID)

	id, err := c.store.SaveCheckpoint(sessionID, summary)
	if err != nil {
		return 0, fmt.Errorf("checkpoint: save: %w", err)
	}

	// Mirror as a turn so search and ranking see the checkpoint.
	if _, err := c.store.AppendTurn(store.AppendTurnParams{
		SessionID: sessionID,
		Kind:      store.KindCheckpoint,
		Content:   summary,
	}); err != nil {
		return id, fmt.Errorf("checkpoint: mirror turn: %w", err)
	}
	return id, nil
}

// synthesize composes the checkpoint summary: what the user asked for,
// which files changed, and the most recent edits.
func (c *Checkpointer) synthesize(sessionID string) string {
	var b strings.Builder
	b.WriteString(Header)

	prompts, err := c.store.SessionTurnsByKind(sessionID, store.KindPrompt)
	if err == nil && len(prompts) > 0 {
		b.WriteString("\nTasks:")
		start := 0
		if len(prompts) > maxTasks {
			start = len(prompts) - maxTasks
		}
		for i, p := range prompts[start:] {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, store.Truncate(firstLine(p.Content), 200)))
		}
	}

	files, err := c.store.ActiveFiles(sessionID, maxFiles)
	if err == nil && len(files) > 0 {
		b.WriteString("\nFiles modified:")
		for _, f := range files {
			b.WriteString("\n- " + f.Path)
		}
	}

	edits, err := c.store.SessionTurnsByKind(sessionID, store.KindEdit)
	if err == nil && len(edits) > 0 {
		b.WriteString("\nRecent edits:")
		start := 0
		if len(edits) > maxRecentEdits {
			start = len(edits) - maxRecentEdits
		}
		for _, e := range edits[start:] {
			b.WriteString("\n- " + store.Truncate(firstLine(e.Content), 150))
		}
	}

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
