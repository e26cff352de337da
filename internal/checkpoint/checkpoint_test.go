package checkpoint_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/recall/internal/checkpoint"
	"github.com/HendryAvila/recall/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{
		DataDir:       filepath.Join(t.TempDir(), ".recall"),
		MaxTurnLength: 2048,
		BusyTimeout:   3 * time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSession("s1", "/tmp/project"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRun_SummaryContents(t *testing.T) {
	s := newTestStore(t)

	appendTurn := func(kind, content string, files ...string) {
		t.Helper()
		if _, err := s.AppendTurn(store.AppendTurnParams{
			SessionID: "s1", Kind: kind, Content: content, Files: files,
		}); err != nil {
			t.Fatal(err)
		}
	}
	appendTurn(store.KindPrompt, "add retry logic to the client")
	appendTurn(store.KindEdit, "Edit client.go:\n- no retry\n+ retry loop", "client.go")
	appendTurn(store.KindPrompt, "now add backoff")
	appendTurn(store.KindBash, "$ go test ./...")

	id, err := checkpoint.New(s).Run("s1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if id == 0 {
		t.Fatal("no checkpoint ID")
	}

	cp, err := s.LatestCheckpoint("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(cp.Summary, checkpoint.Header) {
		t.Errorf("summary missing header: %q", cp.Summary)
	}
	for _, want := range []string{"1. add retry logic", "2. now add backoff", "client.go", "Recent edits:"} {
		if !strings.Contains(cp.Summary, want) {
			t.Errorf("summary missing %q:\n%s", want, cp.Summary)
		}
	}

	// Mirrored as a searchable checkpoint turn.
	last, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}
	if last.Kind != store.KindCheckpoint {
		t.Errorf("last turn kind = %q, want checkpoint", last.Kind)
	}
	if last.Content != store.Truncate(cp.Summary, 2048) {
		t.Error("checkpoint turn content differs from checkpoint row")
	}
}

func TestRun_EmptySessionStillCheckpoints(t *testing.T) {
	s := newTestStore(t)

	if _, err := checkpoint.New(s).Run("s1"); err != nil {
		t.Fatalf("Run on empty session: %v", err)
	}
	cp, err := s.LatestCheckpoint("s1")
	if err != nil {
		t.Fatal(err)
	}
	if cp == nil || cp.Summary != checkpoint.Header {
		t.Errorf("empty-session summary = %+v, want bare header", cp)
	}
}
