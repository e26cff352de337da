package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
	"github.com/HendryAvila/recall/internal/watcher"
)

func newWatchedProject(t *testing.T) (*store.Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := store.Open(store.Config{
		DataDir:       filepath.Join(root, ".recall"),
		MaxTurnLength: 2048,
		BusyTimeout:   3 * time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ix, err := symbols.New(s, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err := watcher.New(ix)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	return s, root
}

// waitForSymbols polls until the file has symbols or the deadline hits.
func waitForSymbols(t *testing.T, s *store.Store, rel, wantName string) bool {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		syms, err := s.FileSymbols(rel)
		if err != nil {
			t.Fatal(err)
		}
		for _, sym := range syms {
			if sym.Name == wantName {
				return true
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func TestWatcher_IndexesNewFile(t *testing.T) {
	s, root := newWatchedProject(t)

	path := filepath.Join(root, "fresh.go")
	if err := os.WriteFile(path, []byte("package x\n\nfunc Fresh() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitForSymbols(t, s, "fresh.go", "Fresh") {
		t.Fatal("new file never indexed")
	}
}

func TestWatcher_ReindexesOnWrite(t *testing.T) {
	s, root := newWatchedProject(t)

	path := filepath.Join(root, "evolving.py")
	if err := os.WriteFile(path, []byte("def before():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitForSymbols(t, s, "evolving.py", "before") {
		t.Fatal("initial write never indexed")
	}

	if err := os.WriteFile(path, []byte("def after():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitForSymbols(t, s, "evolving.py", "after") {
		t.Fatal("rewrite never reindexed")
	}

	syms, err := s.FileSymbols("evolving.py")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 {
		t.Errorf("stale symbols remain: %+v", syms)
	}
}

func TestWatcher_RemoveDropsSymbols(t *testing.T) {
	s, root := newWatchedProject(t)

	path := filepath.Join(root, "doomed.go")
	if err := os.WriteFile(path, []byte("package x\n\nfunc Doomed() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitForSymbols(t, s, "doomed.go", "Doomed") {
		t.Fatal("file never indexed")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		syms, err := s.FileSymbols("doomed.go")
		if err != nil {
			t.Fatal(err)
		}
		if len(syms) == 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("symbols survived file deletion")
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	s, root := newWatchedProject(t)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("def f(): pass"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a chance to (wrongly) index it.
	time.Sleep(800 * time.Millisecond)

	files, err := s.IndexedFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("unsupported file indexed: %v", files)
	}
}
