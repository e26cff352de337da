// Package watcher keeps the symbol index current while the server runs,
// catching edits made outside the hook flow (editors, git operations).
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/HendryAvila/recall/internal/lang"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
)

// debounceWindow coalesces event bursts (saves, formatters, branch
// switches) into one reindex pass per file.
const debounceWindow = 500 * time.Millisecond

// skipDirs mirrors the indexer's walk exclusions.
var skipDirs = map[string]bool{
	".git":         true,
	".recall":      true,
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
}

// Watcher watches a project tree and reindexes changed files.
type Watcher struct {
	indexer *symbols.Indexer
	fsw     *fsnotify.Watcher
}

// New creates a Watcher over the indexer's project root, registering
// every current directory recursively.
func New(ix *symbols.Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{indexer: ix, fsw: fsw}

	err = filepath.WalkDir(ix.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] && path != ix.Root() {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until the context is canceled. Changed files are
// collected over the debounce window and reindexed in one pass.
func (w *Watcher) Run(ctx context.Context) {
	pending := map[string]bool{}
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, pending)
			if len(pending) > 0 && flush == nil {
				flush = time.After(debounceWindow)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("[recall] watcher: %v", err)

		case <-flush:
			w.reindexPending(pending)
			pending = map[string]bool{}
			flush = nil
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, pending map[string]bool) {
	// New directories need their own watch; files in them arrive as
	// later events.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDirs[filepath.Base(event.Name)] {
				_ = w.fsw.Add(event.Name)
			}
			return
		}
	}
	if !lang.Supported(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		pending[event.Name] = true
	}
}

// reindexPending reindexes the debounced set, retrying briefly on lock
// contention with hook processes.
func (w *Watcher) reindexPending(pending map[string]bool) {
	for path := range pending {
		var err error
		for attempt, backoff := 0, 50*time.Millisecond; attempt < 4; attempt++ {
			err = w.indexer.ReindexFile(path)
			if !errors.Is(err, store.ErrBusy) {
				break
			}
			time.Sleep(backoff)
			backoff *= 2
		}
		if err != nil {
			log.Printf("[recall] watcher reindex %s: %v", path, err)
		}
	}
}
