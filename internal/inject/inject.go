// Package inject composes the context blocks handed back to the host at
// session start and after context compaction.
//
// Output is deterministic for a given store state and never exceeds its
// budget: sections are appended in fixed priority order and the result
// is clamped as a final guarantee.
package inject

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/HendryAvila/recall/internal/rank"
	"github.com/HendryAvila/recall/internal/store"
)

const (
	// StartupBudget caps session-start context.
	StartupBudget = 8000
	// CompactBudget caps post-compaction context, larger because it
	// restores in-flight work.
	CompactBudget = 16000
)

const header = "# Project Memory\n\nContext recalled from previous sessions of this project.\n"

// knowledgeSections lists categories in injection order.
var knowledgeSections = []struct {
	category string
	title    string
}{
	{store.CategoryDecision, "Decisions"},
	{store.CategoryArchitecture, "Architecture"},
	{store.CategoryConvention, "Conventions"},
	{store.CategoryPreference, "Preferences"},
	{store.CategoryPattern, "Patterns"},
	{store.CategoryBugfix, "Past fixes"},
}

// Injector builds context blocks from the store.
type Injector struct {
	store *store.Store
}

// New creates an Injector.
func New(s *store.Store) *Injector {
	return &Injector{store: s}
}

// Startup builds the session-start block: project shape, recent
// sessions, and high-confidence knowledge.
func (in *Injector) Startup() (string, error) {
	var b strings.Builder
	b.WriteString(header)

	if section, err := in.projectStructure(); err == nil && section != "" {
		b.WriteString(section)
	}

	sessions, err := in.store.RecentSessions(3)
	if err != nil {
		return "", err
	}
	if len(sessions) > 0 {
		b.WriteString("\n## Recent sessions\n")
		for _, s := range sessions {
			line := fmt.Sprintf("- %s (%d turns)", s.StartedAt, s.TurnCount)
			if s.Summary != nil && *s.Summary != "" {
				line += ": " + store.Truncate(firstLine(*s.Summary), 200)
			}
			b.WriteString(line + "\n")
		}
	}

	for _, sec := range knowledgeSections {
		entries, err := in.store.KnowledgeByCategory(sec.category, 0.5, 10)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			continue
		}
		b.WriteString("\n## " + sec.title + "\n")
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("- %s: %s\n", e.Subject, store.Truncate(e.Content, 300)))
		}
	}

	return clamp(b.String(), StartupBudget), nil
}

// PostCompact rebuilds working context after the host compacted its
// window: the checkpoint, every request of the session, the files in
// play, then the best of the rest under the remaining budget.
func (in *Injector) PostCompact(sessionID string) (string, error) {
	var b strings.Builder
	b.WriteString(header)

	cp, err := in.store.LatestCheckpoint(sessionID)
	if err != nil {
		return "", err
	}
	if cp != nil {
		b.WriteString("\n" + cp.Summary + "\n")
	}

	prompts, err := in.store.SessionTurnsByKind(sessionID, store.KindPrompt)
	if err != nil {
		return "", err
	}
	if len(prompts) > 0 {
		b.WriteString("\n## Session requests\n")
		for i, p := range prompts {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, store.Truncate(firstLine(p.Content), 200)))
		}
	}

	files, err := in.store.ActiveFiles(sessionID, 15)
	if err != nil {
		return "", err
	}
	var contextFiles []string
	if len(files) > 0 {
		b.WriteString("\n## Active files\n")
		for _, f := range files {
			b.WriteString("- " + f.Path + "\n")
			contextFiles = append(contextFiles, f.Path)
		}
	}

	remaining := CompactBudget - b.Len() - len("\n## Recent activity\n")
	if remaining > 0 {
		turns, err := in.store.SessionTurns(sessionID)
		if err != nil {
			return "", err
		}
		// Prompts and the checkpoint are already injected above.
		var rest []store.Turn
		for _, t := range turns {
			if t.Kind == store.KindPrompt || t.Kind == store.KindCheckpoint {
				continue
			}
			rest = append(rest, t)
		}
		if len(rest) > 0 {
			now := latestTurnTime(turns)
			ranked := rank.Rank(rest, rank.Options{Now: now, ContextFiles: contextFiles})
			selected := rank.SelectBudget(ranked, remaining)
			if selected != "" {
				b.WriteString("\n## Recent activity\n")
				b.WriteString(selected)
			}
		}
	}

	return clamp(b.String(), CompactBudget), nil
}

// projectStructure summarizes the symbol index: how much code is known
// and where it lives.
func (in *Injector) projectStructure() (string, error) {
	counts, err := in.store.SymbolCountsByKind()
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "", nil
	}
	files, err := in.store.IndexedFiles()
	if err != nil {
		return "", err
	}

	total := 0
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	var parts []string
	for _, kind := range kinds {
		total += counts[kind]
		parts = append(parts, fmt.Sprintf("%d %ss", counts[kind], kind))
	}

	dirs := topLevelDirs(files)

	var b strings.Builder
	b.WriteString("\n## Project structure\n")
	b.WriteString(fmt.Sprintf("%d symbols across %d files (%s)\n", total, len(files), strings.Join(parts, ", ")))
	if len(dirs) > 0 {
		b.WriteString("Directories: " + strings.Join(dirs, ", ") + "\n")
	}
	return b.String(), nil
}

func topLevelDirs(files []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, f := range files {
		if i := strings.IndexByte(f, '/'); i > 0 {
			dir := f[:i]
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	sort.Strings(dirs)
	if len(dirs) > 12 {
		dirs = dirs[:12]
	}
	return dirs
}

func latestTurnTime(turns []store.Turn) (latest time.Time) {
	for _, t := range turns {
		if ts, err := store.ParseTime(t.CreatedAt); err == nil && ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

// clamp cuts s to at most budget bytes, backing up to a rune boundary so
// the output stays valid UTF-8.
func clamp(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	for budget > 0 && !utf8.RuneStart(s[budget]) {
		budget--
	}
	return s[:budget]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
