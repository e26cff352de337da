package distill

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/recall/internal/store"
)

// techKeywords are technologies whose mention alongside a choice verb
// indicates a decision worth remembering.
var techKeywords = []string{
	"postgres", "postgresql", "sqlite", "mysql", "mongodb", "redis",
	"jwt", "oauth", "graphql", "grpc", "rest",
	"react", "vue", "svelte", "angular", "nextjs", "tailwind",
	"typescript", "docker", "kubernetes", "terraform",
	"kafka", "rabbitmq", "nginx", "websocket",
}

// testFrameworks maps a framework mention to its canonical name.
var testFrameworks = []string{
	"pytest", "jest", "vitest", "mocha", "rspec", "junit",
	"cargo test", "go test", "npm test",
}

// buildTools are command prefixes that reveal the project's toolchain.
var buildTools = []string{"cargo", "npm", "yarn", "pnpm", "pip", "go", "make", "gradle", "mvn"}

var choiceVerbRe = regexp.MustCompile(`\b(use|using|switch to|choose|chose|go with|migrate to|adopt)\b`)

// Heuristic extracts knowledge with pattern matching over the
// transcript. It never fails.
type Heuristic struct{}

// Name implements Strategy.
func (h *Heuristic) Name() string { return "heuristic" }

// Distill implements Strategy.
func (h *Heuristic) Distill(_ context.Context, turns []store.Turn) ([]Entry, error) {
	var entries []Entry
	for _, t := range turns {
		switch t.Kind {
		case store.KindPrompt:
			entries = append(entries, h.fromPrompt(t.Content)...)
		case store.KindEdit:
			entries = append(entries, h.fromEdit(t)...)
		case store.KindBash:
			entries = append(entries, h.fromBash(t.Content)...)
		}
	}
	return dedupeEntries(entries), nil
}

func (h *Heuristic) fromPrompt(prompt string) []Entry {
	var entries []Entry
	lower := strings.ToLower(prompt)

	// Technology choices: "let's use postgres", "switch to redis".
	if choiceVerbRe.MatchString(lower) {
		for _, tech := range techKeywords {
			if containsWord(lower, tech) {
				entries = append(entries, Entry{
					Category:   store.CategoryDecision,
					Subject:    tech,
					Content:    firstSentenceWith(prompt, tech),
					Confidence: 0.6,
				})
			}
		}
	}

	// Test framework conventions: "use pytest for testing".
	for _, fw := range testFrameworks {
		if strings.Contains(lower, fw) {
			entries = append(entries, Entry{
				Category:   store.CategoryConvention,
				Subject:    "test framework",
				Content:    fmt.Sprintf("Project tests run with %s", fw),
				Confidence: 0.7,
			})
			break
		}
	}

	// Hard preferences: "always run the linter", "never commit secrets".
	if subj, content, ok := extractPreference(prompt); ok {
		entries = append(entries, Entry{
			Category:   store.CategoryPreference,
			Subject:    subj,
			Content:    content,
			Confidence: 0.7,
		})
	}

	// Comparative preferences: "prefer X", "Y instead of Z".
	if !strings.Contains(lower, "always") && !strings.Contains(lower, "never") {
		for _, marker := range []string{"instead of", "prefer", "rather than"} {
			if strings.Contains(lower, marker) {
				entries = append(entries, Entry{
					Category:   store.CategoryPreference,
					Subject:    preferenceSubject(prompt),
					Content:    firstSentenceWith(prompt, marker),
					Confidence: 0.5,
				})
				break
			}
		}
	}

	return entries
}

func (h *Heuristic) fromEdit(t store.Turn) []Entry {
	var entries []Entry
	lower := strings.ToLower(t.Content)

	if strings.Contains(lower, "fix") || strings.Contains(lower, "bug") {
		subject := "code fix"
		if len(t.Files) > 0 {
			subject = t.Files[0]
		}
		entries = append(entries, Entry{
			Category:   store.CategoryBugfix,
			Subject:    subject,
			Content:    store.Truncate(t.Content, 300),
			Confidence: 0.5,
		})
	}

	// Touching many files at once usually means a structural change.
	if len(t.Files) >= 3 {
		entries = append(entries, Entry{
			Category:   store.CategoryArchitecture,
			Subject:    "multi-file change",
			Content:    "Structural change across " + strings.Join(t.Files, ", "),
			Confidence: 0.4,
		})
	}
	return entries
}

func (h *Heuristic) fromBash(content string) []Entry {
	if !strings.HasPrefix(content, "$ ") {
		return nil
	}
	command := content[2:]
	if i := strings.IndexByte(command, '\n'); i >= 0 {
		command = command[:i]
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}

	var entries []Entry
	for _, tool := range buildTools {
		if fields[0] == tool {
			entries = append(entries, Entry{
				Category:   store.CategoryConvention,
				Subject:    "build tool",
				Content:    fmt.Sprintf("Project uses %s (%s)", tool, store.Truncate(command, 100)),
				Confidence: 0.5,
			})
			break
		}
	}
	lower := strings.ToLower(command)
	for _, fw := range testFrameworks {
		if strings.HasPrefix(lower, fw) || strings.Contains(lower, " "+fw) {
			entries = append(entries, Entry{
				Category:   store.CategoryConvention,
				Subject:    "test framework",
				Content:    fmt.Sprintf("Project tests run with %s", fw),
				Confidence: 0.6,
			})
			break
		}
	}
	return entries
}

// extractPreference pulls an "always ..." / "never ..." rule out of a
// prompt.
func extractPreference(prompt string) (subject, content string, ok bool) {
	lower := strings.ToLower(prompt)
	for _, word := range []string{"always", "never"} {
		idx := indexWord(lower, word)
		if idx < 0 {
			continue
		}
		rule := strings.TrimSpace(prompt[idx:])
		rule = firstSentence(rule)
		if len(strings.Fields(rule)) < 2 {
			continue
		}
		return preferenceSubject(rule), rule, true
	}
	return "", "", false
}

// preferenceSubject condenses a rule into a short subject key: the first
// few significant words after the leading marker.
func preferenceSubject(rule string) string {
	words := strings.Fields(strings.ToLower(rule))
	var kept []string
	for _, w := range words {
		w = strings.Trim(w, `.,;:!?"'`)
		switch w {
		case "always", "never", "prefer", "please", "the", "a", "an", "to", "of", "in":
			continue
		}
		if w == "" {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return "general"
	}
	return strings.Join(kept, " ")
}

func firstSentence(s string) string {
	for i, r := range s {
		if r == '.' || r == '!' || r == '\n' {
			return strings.TrimSpace(s[:i])
		}
	}
	return strings.TrimSpace(s)
}

// firstSentenceWith returns the sentence of s mentioning needle, or the
// first sentence when none does.
func firstSentenceWith(s, needle string) string {
	needle = strings.ToLower(needle)
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '\n'
	}) {
		if strings.Contains(strings.ToLower(part), needle) {
			return strings.TrimSpace(part)
		}
	}
	return firstSentence(s)
}

func containsWord(haystack, word string) bool {
	return indexWord(haystack, word) >= 0
}

func indexWord(haystack, word string) int {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return -1
		}
		i += idx
		beforeOK := i == 0 || !isWordByte(haystack[i-1])
		end := i + len(word)
		afterOK := end >= len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return i
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// dedupeEntries drops repeated (category, subject, content) triples from
// one distillation pass.
func dedupeEntries(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	var out []Entry
	for _, e := range entries {
		key := e.Category + "\x00" + e.Subject + "\x00" + e.Content
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
