package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/recall/internal/ingest"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
)

func newTestIngestor(t *testing.T) (*ingest.Ingestor, *store.Store, string) {
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
	if err := s.EnsureSession("s1", root); err != nil {
		t.Fatal(err)
	}
	return ingest.New(s, ix), s, root
}

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRecordPrompt(t *testing.T) {
	in, s, _ := newTestIngestor(t)

	if err := in.RecordPrompt("s1", "  add caching to the profile endpoint  "); err != nil {
		t.Fatalf("RecordPrompt: %v", err)
	}
	turn, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}
	if turn.Kind != store.KindPrompt {
		t.Errorf("kind = %q", turn.Kind)
	}
	if turn.Content != "add caching to the profile endpoint" {
		t.Errorf("content = %q, want trimmed prompt", turn.Content)
	}
}

func TestRecordPrompt_EmptyIgnored(t *testing.T) {
	in, s, _ := newTestIngestor(t)
	if err := in.RecordPrompt("s1", "   "); err != nil {
		t.Fatal(err)
	}
	turn, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}
	if turn != nil {
		t.Errorf("blank prompt stored: %+v", turn)
	}
}

func TestRecordBash_OutputTruncated(t *testing.T) {
	in, s, _ := newTestIngestor(t)

	output := strings.Repeat("line of build output\n", 500)
	if err := in.RecordBash("s1", "make build", output); err != nil {
		t.Fatalf("RecordBash: %v", err)
	}
	turn, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(turn.Content, "$ make build\n") {
		t.Errorf("content = %q", turn.Content[:40])
	}
	if len(turn.Content) > 2048 {
		t.Errorf("content length = %d, want capped", len(turn.Content))
	}
}

func TestRecordEdit_FormatAndReindex(t *testing.T) {
	in, s, root := newTestIngestor(t)

	writeTestFile(t, root, "a.py", "def first_version():\n    pass\n")
	if err := in.RecordEdit("s1", "a.py", "", "def first_version():"); err != nil {
		t.Fatalf("RecordEdit: %v", err)
	}

	turn, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(turn.Content, "Edit a.py:\n- \n+ def first_version():") {
		t.Errorf("content = %q", turn.Content)
	}
	if len(turn.Files) != 1 || turn.Files[0] != "a.py" {
		t.Errorf("files = %v", turn.Files)
	}

	syms, err := s.FileSymbols("a.py")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 || syms[0].Name != "first_version" {
		t.Fatalf("symbols = %+v", syms)
	}

	// A second edit replaces the file's symbols with the new parse.
	writeTestFile(t, root, "a.py", "def second_version():\n    pass\n")
	if err := in.RecordEdit("s1", "a.py", "def first_version():", "def second_version():"); err != nil {
		t.Fatal(err)
	}
	syms, err = s.FileSymbols("a.py")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 || syms[0].Name != "second_version" {
		t.Fatalf("symbols after second edit = %+v", syms)
	}
}

func TestRecord_DuplicateDeliverySuppressed(t *testing.T) {
	in, s, _ := newTestIngestor(t)

	if err := in.RecordPrompt("s1", "same prompt"); err != nil {
		t.Fatal(err)
	}
	if err := in.RecordPrompt("s1", "same prompt"); err != nil {
		t.Fatal(err)
	}

	turns, err := s.SessionTurns("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 {
		t.Errorf("got %d turns, want 1 after duplicate delivery", len(turns))
	}

	// A different event, then the first again, is not a redelivery.
	if err := in.RecordBash("s1", "ls", ""); err != nil {
		t.Fatal(err)
	}
	if err := in.RecordPrompt("s1", "same prompt"); err != nil {
		t.Fatal(err)
	}
	turns, err = s.SessionTurns("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Errorf("got %d turns, want 3", len(turns))
	}
}

func TestRecordBash_TruncationIdempotent(t *testing.T) {
	in, s, _ := newTestIngestor(t)

	output := strings.Repeat("z", 5000)
	if err := in.RecordBash("s1", "run", output); err != nil {
		t.Fatal(err)
	}
	first, err := s.LastTurn("s1")
	if err != nil {
		t.Fatal(err)
	}

	// Redelivering the already-truncated content is suppressed entirely.
	stored := strings.TrimPrefix(first.Content, "$ run\n")
	if err := in.RecordBash("s1", "run", stored); err != nil {
		t.Fatal(err)
	}
	turns, err := s.SessionTurns("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 1 {
		t.Errorf("got %d turns, want 1", len(turns))
	}
}
