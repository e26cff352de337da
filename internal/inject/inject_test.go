package inject_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/recall/internal/checkpoint"
	"github.com/HendryAvila/recall/internal/inject"
	"github.com/HendryAvila/recall/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{
		DataDir:       filepath.Join(t.TempDir(), ".recall"),
		MaxTurnLength: 2048,
		BusyTimeout:   3 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureSession("s1", "/tmp/project"))
	return s
}

func appendTurn(t *testing.T, s *store.Store, kind, content string, files ...string) {
	t.Helper()
	_, err := s.AppendTurn(store.AppendTurnParams{
		SessionID: "s1", Kind: kind, Content: content, Files: files,
	})
	require.NoError(t, err)
}

func TestStartup_Sections(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceFileSymbols("internal/auth/auth.go", "h1", []store.Symbol{
		{Name: "Login", Kind: "function", StartLine: 1, EndLine: 10},
		{Name: "Token", Kind: "struct", StartLine: 12, EndLine: 20},
	}))
	_, err := s.UpsertKnowledge(store.UpsertKnowledgeParams{
		SessionID: "s1", Category: store.CategoryDecision,
		Subject: "database", Content: "Uses sqlite in WAL mode", Confidence: 0.8,
	})
	require.NoError(t, err)
	_, err = s.UpsertKnowledge(store.UpsertKnowledgeParams{
		SessionID: "s1", Category: store.CategoryConvention,
		Subject: "weak hunch", Content: "Maybe tabs?", Confidence: 0.2,
	})
	require.NoError(t, err)
	appendTurn(t, s, store.KindPrompt, "build the login flow")

	out, err := inject.New(s).Startup()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Project Memory"))
	assert.Contains(t, out, "## Project structure")
	assert.Contains(t, out, "internal")
	assert.Contains(t, out, "## Recent sessions")
	assert.Contains(t, out, "## Decisions")
	assert.Contains(t, out, "Uses sqlite in WAL mode")
	// Low-confidence knowledge stays out of startup context.
	assert.NotContains(t, out, "Maybe tabs?")
	assert.LessOrEqual(t, len(out), inject.StartupBudget)
}

func TestStartup_Deterministic(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpsertKnowledge(store.UpsertKnowledgeParams{
		SessionID: "s1", Category: store.CategoryDecision,
		Subject: "cache", Content: "Redis fronts the profile reads", Confidence: 0.9,
	})
	require.NoError(t, err)

	in := inject.New(s)
	first, err := in.Startup()
	require.NoError(t, err)
	second, err := in.Startup()
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical store state must inject identical bytes")
}

func TestPostCompact_Sections(t *testing.T) {
	s := newTestStore(t)

	appendTurn(t, s, store.KindPrompt, "wire up the payment webhook")
	appendTurn(t, s, store.KindEdit, "Edit webhook.go:\n- stub\n+ handler", "webhook.go")
	appendTurn(t, s, store.KindBash, "$ go test ./...")
	_, err := checkpoint.New(s).Run("s1")
	require.NoError(t, err)

	out, err := inject.New(s).PostCompact("s1")
	require.NoError(t, err)

	assert.Contains(t, out, checkpoint.Header)
	assert.Contains(t, out, "## Session requests")
	assert.Contains(t, out, "1. wire up the payment webhook")
	assert.Contains(t, out, "## Active files")
	assert.Contains(t, out, "webhook.go")
	assert.Contains(t, out, "## Recent activity")
	assert.LessOrEqual(t, len(out), inject.CompactBudget)
}

func TestPostCompact_Deterministic(t *testing.T) {
	s := newTestStore(t)
	appendTurn(t, s, store.KindPrompt, "refactor the scheduler")
	appendTurn(t, s, store.KindEdit, "Edit sched.go:\n- old\n+ new", "sched.go")

	in := inject.New(s)
	first, err := in.PostCompact("s1")
	require.NoError(t, err)
	second, err := in.PostCompact("s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPostCompact_BudgetUnderLoad(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 120; i++ {
		appendTurn(t, s, store.KindBash, fmt.Sprintf("$ make step-%d\n%s", i, strings.Repeat("out ", 100)))
	}
	for i := 0; i < 30; i++ {
		appendTurn(t, s, store.KindPrompt, fmt.Sprintf("task %d: %s", i, strings.Repeat("detail ", 30)))
	}

	out, err := inject.New(s).PostCompact("s1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), inject.CompactBudget)
	assert.Contains(t, out, "## Session requests")
}

func TestPostCompact_MultibyteContentStaysValidUTF8(t *testing.T) {
	s := newTestStore(t)
	// Enough multibyte content to force truncation at the budget edge.
	for i := 0; i < 120; i++ {
		appendTurn(t, s, store.KindBash, fmt.Sprintf("$ make step-%d\n%s", i, strings.Repeat("héllo wörld ", 80)))
	}
	for i := 0; i < 20; i++ {
		appendTurn(t, s, store.KindPrompt, fmt.Sprintf("タスク %d: %s", i, strings.Repeat("詳細 ", 60)))
	}

	out, err := inject.New(s).PostCompact("s1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), inject.CompactBudget)
	assert.True(t, utf8.ValidString(out), "injected context contains a split rune")
}

func TestStartup_EmptyStore(t *testing.T) {
	s := newTestStore(t)
	out, err := inject.New(s).Startup()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Project Memory"))
	assert.NotContains(t, out, "## Project structure")
	assert.NotContains(t, out, "## Decisions")
}
