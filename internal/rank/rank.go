// Package rank scores stored turns for retrieval and selects the best
// ones under a character budget.
//
// The score is a product of independent factors: what kind of turn it is,
// how recently it happened, how much it overlaps the files currently
// being worked on, and how substantial its content is. Scoring is pure:
// the same inputs always produce the same ordering.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HendryAvila/recall/internal/store"
)

// perEntryLimit caps how much of one turn makes it into formatted output.
const perEntryLimit = 800

// Ranked pairs a turn with its computed score.
type Ranked struct {
	Turn  store.Turn
	Score float64
}

// Options controls scoring.
type Options struct {
	// Now anchors recency decay. Zero means time.Now().
	Now time.Time

	// ContextFiles are the files the current work touches; turns that
	// overlap them score higher.
	ContextFiles []string

	// Relevance optionally carries full-text match scores by turn ID.
	// Turns present in the map get a relevance multiplier.
	Relevance map[int64]float64
}

// TypeWeight returns the base weight of a turn kind. Decisions the user
// expressed (prompts) and durable artifacts (checkpoints, edits) matter
// more than what the session merely looked at or ran.
func TypeWeight(kind string) float64 {
	switch kind {
	case store.KindCheckpoint:
		return 1.4
	case store.KindPrompt:
		return 1.3
	case store.KindEdit:
		return 1.2
	case store.KindRead:
		return 0.5
	case store.KindBash:
		return 0.3
	default:
		return 0.5
	}
}

// RecencyBoost decays exponentially with a 24-hour half-scale and floors
// at 0.1 so old turns stay findable.
func RecencyBoost(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Max(math.Exp(-hours/24), 0.1)
}

// FileAffinity boosts turns touching the same files as the current work:
// 1.0 with no overlap, +0.5 per overlapping file.
func FileAffinity(turnFiles, contextFiles []string) float64 {
	if len(turnFiles) == 0 || len(contextFiles) == 0 {
		return 1.0
	}
	ctx := make(map[string]bool, len(contextFiles))
	for _, f := range contextFiles {
		ctx[f] = true
	}
	overlap := 0
	for _, f := range turnFiles {
		if ctx[f] {
			overlap++
		}
	}
	return 1.0 + float64(overlap)*0.5
}

// substanceBonus rewards content with enough body to be useful.
func substanceBonus(content string) float64 {
	bonus := 1.0
	if len(content) > 100 {
		bonus *= 1.1
	}
	if len(content) > 500 {
		bonus *= 1.1
	}
	return bonus
}

// Score computes the composite score of one turn.
func Score(t store.Turn, opts Options) float64 {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	score := TypeWeight(t.Kind)

	if created, err := store.ParseTime(t.CreatedAt); err == nil {
		score *= RecencyBoost(now.Sub(created))
	}
	score *= FileAffinity(t.Files, opts.ContextFiles)
	score *= substanceBonus(t.Content)

	if opts.Relevance != nil {
		if rel, ok := opts.Relevance[t.ID]; ok && rel > 0 {
			score *= 1.0 + rel
		}
	}
	return score
}

// Rank scores turns and returns them best first. Ties break toward the
// later turn so the ordering is total and deterministic.
func Rank(turns []store.Turn, opts Options) []Ranked {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	ranked := make([]Ranked, len(turns))
	for i, t := range turns {
		ranked[i] = Ranked{Turn: t, Score: Score(t, opts)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Turn.ID > ranked[j].Turn.ID
	})
	return ranked
}

// label maps a turn kind to its display label in formatted context.
func label(kind string) string {
	switch kind {
	case store.KindPrompt:
		return "Request"
	case store.KindEdit:
		return "Edit"
	case store.KindRead:
		return "Read"
	case store.KindBash:
		return "Command"
	case store.KindCheckpoint:
		return "Checkpoint"
	default:
		return "Turn"
	}
}

// FormatEntry renders one ranked turn as a context line.
func FormatEntry(t store.Turn) string {
	content := strings.TrimSpace(t.Content)
	if len(content) > perEntryLimit {
		content = content[:runeCut(content, perEntryLimit)] + "..."
	}
	if len(t.Files) > 0 {
		return fmt.Sprintf("- **%s** [%s]: %s\n", label(t.Kind), strings.Join(t.Files, ", "), content)
	}
	return fmt.Sprintf("- **%s**: %s\n", label(t.Kind), content)
}

// SelectBudget greedily takes ranked turns in order until the character
// budget is spent, truncating the last entry to fit. The result never
// exceeds budget bytes and never ends mid-rune.
func SelectBudget(ranked []Ranked, budget int) string {
	if budget <= 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range ranked {
		entry := FormatEntry(r.Turn)
		remaining := budget - b.Len()
		if remaining <= 0 {
			break
		}
		if len(entry) > remaining {
			b.WriteString(entry[:runeCut(entry, remaining)])
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

// runeCut backs a byte offset up to the nearest UTF-8 rune boundary.
func runeCut(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
