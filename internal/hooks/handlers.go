package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/HendryAvila/recall/internal/checkpoint"
	"github.com/HendryAvila/recall/internal/distill"
	"github.com/HendryAvila/recall/internal/inject"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/tasks"
)

// startDrainMax caps how many queued tasks a session-start hook runs
// before injecting, so startup stays snappy.
const startDrainMax = 3

// Handlers maps hook kinds to their handlers.
var Handlers = map[string]Handler{
	"prompt":        Prompt,
	"edit":          Edit,
	"read":          Read,
	"bash":          Bash,
	"pre-compact":   PreCompact,
	"session-start": SessionStart,
	"session-end":   SessionEnd,
}

// Prompt records a user prompt.
func Prompt(env *Env, in *Input) (string, error) {
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}
	return "", env.Ingest.RecordPrompt(sessionID, in.Prompt)
}

// Edit records a file edit.
func Edit(env *Env, in *Input) (string, error) {
	e, err := in.Edit()
	if err != nil {
		return "", err
	}
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}
	return "", env.Ingest.RecordEdit(sessionID, e.FilePath, e.OldString, e.NewString)
}

// Read records a file read.
func Read(env *Env, in *Input) (string, error) {
	r, err := in.ReadFile()
	if err != nil {
		return "", err
	}
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}
	return "", env.Ingest.RecordRead(sessionID, r.FilePath)
}

// Bash records a shell command and its output.
func Bash(env *Env, in *Input) (string, error) {
	b, output, err := in.Bash()
	if err != nil {
		return "", err
	}
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}
	return "", env.Ingest.RecordBash(sessionID, b.Command, output)
}

// PreCompact checkpoints the session before the host compacts its
// context window, and queues a stale reindex for the background worker.
func PreCompact(env *Env, in *Input) (string, error) {
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}
	if _, err := checkpoint.New(env.Store).Run(sessionID); err != nil {
		return "", err
	}
	if _, err := env.Store.EnqueueTask(store.TaskReindexStale, ""); err != nil {
		log.Printf("[recall] enqueue reindex: %v", err)
	}
	return "", nil
}

// SessionStart injects recalled context into the new session. The
// payload's source distinguishes a fresh start from a post-compaction
// resume.
func SessionStart(env *Env, in *Input) (string, error) {
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}

	// Clear a little queue backlog first so injected context reflects
	// recent sessions even when no server is running.
	exec := tasks.NewExecutor(env.Store, env.Indexer, newDistiller(env))
	exec.RunPending(context.Background(), startDrainMax)

	injector := inject.New(env.Store)
	var (
		body string
		err  error
	)
	if in.Source == "compact" {
		body, err = injector.PostCompact(sessionID)
	} else {
		body, err = injector.Startup()
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", nil
	}
	return sessionStartOutput(body)
}

// SessionEnd closes the session with a summary and distills it into
// durable knowledge.
func SessionEnd(env *Env, in *Input) (string, error) {
	sessionID := in.Session()
	if err := env.Store.EnsureSession(sessionID, env.ProjectDir); err != nil {
		return "", err
	}

	summary, err := sessionSummary(env.Store, sessionID)
	if err != nil {
		return "", err
	}
	if err := env.Store.EndSession(sessionID, summary); err != nil {
		return "", err
	}

	if n, err := distillNow(env, sessionID); err != nil {
		log.Printf("[recall] distill session %s: %v", sessionID, err)
	} else if n > 0 {
		log.Printf("[recall] distilled %d knowledge entries from session %s", n, sessionID)
	}
	return "", nil
}

// distillNow runs distillation inline. Falls back to enqueueing a task
// when the inline run fails, so a crashed distill is retried later.
func distillNow(env *Env, sessionID string) (int, error) {
	n, err := newDistiller(env).Run(context.Background(), sessionID)
	if err != nil {
		if _, qerr := env.Store.EnqueueTask(store.TaskDistillSession, sessionID); qerr != nil {
			log.Printf("[recall] enqueue distill: %v", qerr)
		}
	}
	return n, err
}

// newDistiller builds the configured distiller: external model when the
// config carries credentials, heuristics otherwise.
func newDistiller(env *Env) *distill.Distiller {
	var primary distill.Strategy
	if env.Config != nil && env.Config.ExternalEnabled() {
		primary = distill.NewExternalModel(env.Config.LLM.APIKey, env.Config.LLM.Model, env.Config.LLM.BaseURL)
	}
	return distill.New(env.Store, primary)
}

// sessionSummary composes the write-once session summary: what the user
// asked for and how much changed.
func sessionSummary(s *store.Store, sessionID string) (string, error) {
	prompts, err := s.SessionTurnsByKind(sessionID, store.KindPrompt)
	if err != nil {
		return "", err
	}
	edits, err := s.SessionTurnsByKind(sessionID, store.KindEdit)
	if err != nil {
		return "", err
	}
	files, err := s.ActiveFiles(sessionID, 100)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(prompts) > 0 {
		b.WriteString("User requests:")
		for i, p := range prompts {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, store.Truncate(firstLine(p.Content), 150)))
		}
	}
	if len(edits) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("Stats: %d code edits across %d files", len(edits), len(files)))
	}
	return b.String(), nil
}

// sessionStartOutput wraps injected context in the host's hook output
// envelope.
func sessionStartOutput(body string) (string, error) {
	out := map[string]any{
		"hookSpecificOutput": map[string]any{
			"hookEventName":     "SessionStart",
			"additionalContext": body,
		},
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("hooks: encode output: %w", err)
	}
	return string(data), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
