package rank

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/recall/internal/store"
)

func turnAt(id int64, kind, content string, created time.Time, files ...string) store.Turn {
	return store.Turn{
		ID:        id,
		SessionID: "s1",
		Seq:       int(id),
		Kind:      kind,
		Content:   content,
		CreatedAt: created.UTC().Format("2006-01-02 15:04:05"),
		Files:     files,
	}
}

func TestTypeWeight_Ordering(t *testing.T) {
	assert.Greater(t, TypeWeight(store.KindCheckpoint), TypeWeight(store.KindPrompt))
	assert.Greater(t, TypeWeight(store.KindPrompt), TypeWeight(store.KindEdit))
	assert.Greater(t, TypeWeight(store.KindEdit), TypeWeight(store.KindRead))
	assert.Greater(t, TypeWeight(store.KindRead), TypeWeight(store.KindBash))
	assert.Equal(t, 0.5, TypeWeight("unknown"))
}

func TestRecencyBoost(t *testing.T) {
	assert.InDelta(t, 1.0, RecencyBoost(0), 1e-9)
	assert.Greater(t, RecencyBoost(1*time.Hour), RecencyBoost(48*time.Hour))
	// Old turns floor at 0.1 instead of vanishing.
	assert.Equal(t, 0.1, RecencyBoost(30*24*time.Hour))
	// Clock skew must not blow the boost up.
	assert.InDelta(t, 1.0, RecencyBoost(-2*time.Hour), 1e-9)
}

func TestFileAffinity(t *testing.T) {
	ctx := []string{"auth.go", "auth_test.go"}
	assert.Equal(t, 1.0, FileAffinity(nil, ctx))
	assert.Equal(t, 1.0, FileAffinity([]string{"other.go"}, ctx))
	assert.Equal(t, 1.5, FileAffinity([]string{"auth.go"}, ctx))
	assert.Equal(t, 2.0, FileAffinity([]string{"auth.go", "auth_test.go"}, ctx))
}

func TestRank_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var turns []store.Turn
	for i := int64(1); i <= 20; i++ {
		kind := store.KindBash
		if i%3 == 0 {
			kind = store.KindPrompt
		}
		turns = append(turns, turnAt(i, kind, fmt.Sprintf("turn number %d content", i),
			now.Add(-time.Duration(i)*time.Minute)))
	}
	opts := Options{Now: now, ContextFiles: []string{"a.go"}}

	first := Rank(turns, opts)
	second := Rank(turns, opts)
	require.Equal(t, first, second)

	out1 := SelectBudget(first, 700)
	out2 := SelectBudget(second, 700)
	assert.Equal(t, out1, out2)
}

func TestRank_TieBreakLaterTurnFirst(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)
	turns := []store.Turn{
		turnAt(1, store.KindPrompt, "identical", created),
		turnAt(2, store.KindPrompt, "identical", created),
	}
	ranked := Rank(turns, Options{Now: now})
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].Turn.ID)
}

func TestRank_PromptBeatsBashUnderTightBudget(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var turns []store.Turn
	for i := int64(1); i <= 50; i++ {
		kind := store.KindBash
		content := fmt.Sprintf("$ make step-%d", i)
		if i%5 == 0 {
			kind = store.KindPrompt
			content = fmt.Sprintf("please refactor module %d", i)
		}
		turns = append(turns, turnAt(i, kind, content, now.Add(-time.Duration(50-i)*time.Minute)))
	}

	ranked := Rank(turns, Options{Now: now})
	out := SelectBudget(ranked, 500)

	require.LessOrEqual(t, len(out), 500)
	promptPos := strings.Index(out, "**Request**")
	bashPos := strings.Index(out, "**Command**")
	require.NotEqual(t, -1, promptPos, "no prompt made it into the output")
	if bashPos != -1 {
		assert.Less(t, promptPos, bashPos, "a command ranked above a prompt")
	}
	// The most recent prompt leads.
	assert.Contains(t, out[:120], "module 50")
}

func TestRank_RelevanceMultiplier(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	created := now.Add(-time.Hour)
	turns := []store.Turn{
		turnAt(1, store.KindPrompt, "matched by the query", created),
		turnAt(2, store.KindPrompt, "not matched", created),
	}
	ranked := Rank(turns, Options{Now: now, Relevance: map[int64]float64{1: 2.0}})
	assert.Equal(t, int64(1), ranked[0].Turn.ID)
}

func TestSelectBudget_NeverExceeds(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var turns []store.Turn
	for i := int64(1); i <= 10; i++ {
		turns = append(turns, turnAt(i, store.KindPrompt, strings.Repeat("x", 300), now))
	}
	ranked := Rank(turns, Options{Now: now})

	for _, budget := range []int{0, 1, 10, 100, 500, 5000, 100000} {
		out := SelectBudget(ranked, budget)
		assert.LessOrEqual(t, len(out), budget, "budget %d", budget)
	}
}

func TestSelectBudget_CutStaysValidUTF8(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	turns := []store.Turn{
		turnAt(1, store.KindPrompt, strings.Repeat("é", 200), now),
		turnAt(2, store.KindPrompt, strings.Repeat("世界", 100), now),
	}
	ranked := Rank(turns, Options{Now: now})

	// Sweep budgets so some land mid-rune on the truncated entry.
	for budget := 20; budget < 500; budget += 7 {
		out := SelectBudget(ranked, budget)
		require.LessOrEqual(t, len(out), budget, "budget %d", budget)
		assert.True(t, utf8.ValidString(out), "budget %d produced invalid UTF-8", budget)
	}
}

func TestFormatEntry(t *testing.T) {
	turn := turnAt(1, store.KindEdit, "Edit auth.go:\n- old\n+ new", time.Now(), "auth.go")
	entry := FormatEntry(turn)
	assert.True(t, strings.HasPrefix(entry, "- **Edit** [auth.go]: "))

	long := turnAt(2, store.KindBash, strings.Repeat("y", 2000), time.Now())
	assert.LessOrEqual(t, len(FormatEntry(long)), perEntryLimit+64)

	wide := turnAt(3, store.KindBash, strings.Repeat("é", 2000), time.Now())
	assert.True(t, utf8.ValidString(FormatEntry(wide)), "per-entry cut split a rune")
}
