package tasks_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/recall/internal/distill"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
	"github.com/HendryAvila/recall/internal/tasks"
	_ "modernc.org/sqlite"
)

func newTestExecutor(t *testing.T) (*tasks.Executor, *store.Store, string) {
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
	return tasks.NewExecutor(s, ix, distill.New(s, nil)), s, root
}

// taskStatus inspects the queue through a second read connection.
func taskStatus(t *testing.T, root string, id int64) string {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(root, ".recall", "recall.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	var status string
	if err := db.QueryRow(
		`SELECT status FROM background_tasks WHERE id = ?`, id,
	).Scan(&status); err != nil {
		t.Fatal(err)
	}
	return status
}

func TestRunPending_ReindexStale(t *testing.T) {
	e, s, root := newTestExecutor(t)

	path := filepath.Join(root, "x.go")
	if err := os.WriteFile(path, []byte("package x\n\nfunc Old() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ix, err := symbols.New(s, root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.IndexProject(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("package x\n\nfunc New() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := s.EnqueueTask(store.TaskReindexStale, "")
	if err != nil {
		t.Fatal(err)
	}

	ran := e.RunPending(context.Background(), 10)
	if ran != 1 {
		t.Fatalf("ran %d tasks, want 1", ran)
	}
	if got := taskStatus(t, root, id); got != "done" {
		t.Errorf("task status = %q, want done", got)
	}
	syms, err := s.FileSymbols("x.go")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 || syms[0].Name != "New" {
		t.Errorf("symbols = %+v, want New", syms)
	}
}

func TestRunPending_DistillSession(t *testing.T) {
	e, s, _ := newTestExecutor(t)

	if err := s.EnsureSession("s1", "/tmp/p"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendTurn(store.AppendTurnParams{
		SessionID: "s1", Kind: store.KindPrompt, Content: "use pytest for testing",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnqueueTask(store.TaskDistillSession, "s1"); err != nil {
		t.Fatal(err)
	}

	if ran := e.RunPending(context.Background(), 10); ran != 1 {
		t.Fatalf("ran %d tasks, want 1", ran)
	}

	entries, err := s.KnowledgeByCategory(store.CategoryConvention, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Fatal("distill task produced no knowledge")
	}
}

func TestRunPending_UnknownTaskFails(t *testing.T) {
	e, s, root := newTestExecutor(t)

	id, err := s.EnqueueTask("launch_rockets", "")
	if err != nil {
		t.Fatal(err)
	}
	if ran := e.RunPending(context.Background(), 10); ran != 1 {
		t.Fatal("unknown task not claimed")
	}
	if got := taskStatus(t, root, id); got != "failed" {
		t.Errorf("task status = %q, want failed", got)
	}
}

func TestRunPending_RespectsMax(t *testing.T) {
	e, s, _ := newTestExecutor(t)
	for i := 0; i < 5; i++ {
		if _, err := s.EnqueueTask(store.TaskReindexStale, ""); err != nil {
			t.Fatal(err)
		}
	}
	if ran := e.RunPending(context.Background(), 2); ran != 2 {
		t.Errorf("ran %d tasks, want 2", ran)
	}
}
