// Package symbols keeps the code-symbol index in sync with the project
// tree. Parsing happens outside any store transaction; the per-file swap
// of symbol rows is atomic.
package symbols

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/HendryAvila/recall/internal/lang"
	"github.com/HendryAvila/recall/internal/store"
)

// maxFileSize caps what the indexer will read. Generated bundles and
// vendored blobs above this are skipped.
const maxFileSize = 1 << 20

// skipDirs are directory names never descended into.
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

// Indexer walks a project tree and maintains the symbol index for it.
type Indexer struct {
	store  *store.Store
	root   string
	ignore []glob.Glob
}

// New creates an Indexer for a project root. Extra ignore patterns use
// glob syntax and match project-relative paths.
func New(s *store.Store, root string, ignorePatterns []string) (*Indexer, error) {
	ix := &Indexer{store: s, root: root}
	for _, p := range ignorePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("symbols: bad ignore pattern %q: %w", p, err)
		}
		ix.ignore = append(ix.ignore, g)
	}
	return ix, nil
}

// Root returns the project root the indexer walks.
func (ix *Indexer) Root() string {
	return ix.root
}

func (ix *Indexer) ignored(relPath string) bool {
	for _, g := range ix.ignore {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// relPath converts an absolute or relative path to the project-relative
// form used as the index key.
func (ix *Indexer) relPath(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(ix.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// ReindexFile re-parses one file and swaps its symbol rows. A file that
// no longer exists has its symbols removed. Unsupported and ignored
// files are left alone. Unchanged content (by hash) is a no-op.
func (ix *Indexer) ReindexFile(path string) error {
	rel := ix.relPath(path)
	if ix.ignored(rel) {
		return nil
	}
	l := lang.ForPath(rel)
	if l == nil {
		return nil
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(ix.root, path)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return ix.store.DeleteFileSymbols(rel)
		}
		return fmt.Errorf("symbols: read %s: %w", rel, err)
	}
	if len(content) > maxFileSize {
		return nil
	}

	hash := store.HashContent(content)
	prev, err := ix.store.FileContentHash(rel)
	if err != nil {
		return err
	}
	if prev == hash {
		return nil
	}

	parsed := l.Parse(string(content))
	rows := make([]store.Symbol, 0, len(parsed))
	for _, sym := range parsed {
		rows = append(rows, store.Symbol{
			FilePath:  rel,
			Name:      sym.Name,
			Kind:      sym.Kind,
			StartLine: sym.StartLine,
			EndLine:   sym.EndLine,
			Signature: sym.Signature,
		})
	}
	return ix.store.ReplaceFileSymbols(rel, hash, rows)
}

// IndexProject walks the whole tree and indexes every supported file.
// Returns the number of files visited by the indexer.
func (ix *Indexer) IndexProject() (int, error) {
	count := 0
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != ix.root) {
				return filepath.SkipDir
			}
			return nil
		}
		rel := ix.relPath(path)
		if !lang.Supported(rel) || ix.ignored(rel) {
			return nil
		}
		count++
		if err := ix.ReindexFile(path); err != nil {
			return err
		}
		return nil
	})
	return count, err
}

// ReindexStale refreshes files whose content changed since they were
// last indexed and drops symbols for indexed files that are gone.
// Returns the number of files refreshed or removed.
func (ix *Indexer) ReindexStale() (int, error) {
	indexed, err := ix.store.IndexedFiles()
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, rel := range indexed {
		abs := filepath.Join(ix.root, filepath.FromSlash(rel))
		content, err := os.ReadFile(abs)
		if os.IsNotExist(err) {
			if err := ix.store.DeleteFileSymbols(rel); err != nil {
				return changed, err
			}
			changed++
			continue
		}
		if err != nil || len(content) > maxFileSize {
			continue
		}
		prev, err := ix.store.FileContentHash(rel)
		if err != nil {
			return changed, err
		}
		if store.HashContent(content) == prev {
			continue
		}
		if err := ix.ReindexFile(rel); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
