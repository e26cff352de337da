// Package ingest normalizes hook events into stored turns.
package ingest

import (
	"fmt"
	"log"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
)

const (
	// maxDiffSide caps each side of a recorded edit.
	maxDiffSide = 500
	// maxBashOutput caps recorded command output.
	maxBashOutput = 2000
)

// Ingestor turns hook payloads into turns. An optional indexer keeps the
// symbol index current as edits arrive.
type Ingestor struct {
	store   *store.Store
	indexer *symbols.Indexer
}

// New creates an Ingestor. indexer may be nil when symbol indexing is
// not wanted (tests, degraded mode).
func New(s *store.Store, ix *symbols.Indexer) *Ingestor {
	return &Ingestor{store: s, indexer: ix}
}

// RecordPrompt stores a user prompt turn.
func (in *Ingestor) RecordPrompt(sessionID, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}
	return in.record(store.AppendTurnParams{
		SessionID: sessionID,
		Kind:      store.KindPrompt,
		Content:   prompt,
	})
}

// RecordEdit stores a file edit turn and refreshes the file's symbols.
func (in *Ingestor) RecordEdit(sessionID, filePath, oldText, newText string) error {
	if filePath == "" {
		return nil
	}
	content := fmt.Sprintf("Edit %s:\n- %s\n+ %s",
		filePath,
		store.Truncate(oldText, maxDiffSide),
		store.Truncate(newText, maxDiffSide),
	)
	err := in.record(store.AppendTurnParams{
		SessionID: sessionID,
		Kind:      store.KindEdit,
		Content:   content,
		Files:     []string{filePath},
	})
	if err != nil {
		return err
	}

	// Keep the symbol index current. Indexing failure never fails the
	// event: the watcher or a stale reindex will catch up.
	if in.indexer != nil {
		if err := in.indexer.ReindexFile(filePath); err != nil {
			log.Printf("[recall] reindex %s: %v", filePath, err)
		}
	}
	return nil
}

// RecordRead stores a file read turn.
func (in *Ingestor) RecordRead(sessionID, filePath string) error {
	if filePath == "" {
		return nil
	}
	return in.record(store.AppendTurnParams{
		SessionID: sessionID,
		Kind:      store.KindRead,
		Content:   "Read file: " + filePath,
		Files:     []string{filePath},
	})
}

// RecordBash stores a shell command turn with its (bounded) output.
func (in *Ingestor) RecordBash(sessionID, command, output string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	content := "$ " + command
	if output = strings.TrimSpace(output); output != "" {
		content += "\n" + store.Truncate(output, maxBashOutput)
	}
	return in.record(store.AppendTurnParams{
		SessionID: sessionID,
		Kind:      store.KindBash,
		Content:   content,
	})
}

// record appends a turn unless it redelivers the session's previous
// turn. Hosts retry hooks, so an event identical to the immediately
// preceding one (same kind, same content) is suppressed.
func (in *Ingestor) record(p store.AppendTurnParams) error {
	last, err := in.store.LastTurn(p.SessionID)
	if err != nil {
		return err
	}
	if last != nil && last.Kind == p.Kind &&
		last.Content == store.Truncate(p.Content, in.store.Config().MaxTurnLength) {
		return nil
	}
	_, err = in.store.AppendTurn(p)
	return err
}
