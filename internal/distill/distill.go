// Package distill extracts durable knowledge from session transcripts.
//
// Two strategies exist: a heuristic pattern matcher that always works,
// and an external-model strategy that asks a chat-completion endpoint to
// read the transcript. The external path is strictly best effort: any
// failure falls back to the heuristic so a session always distills.
package distill

import (
	"context"
	"log"
	"time"

	"github.com/HendryAvila/recall/internal/store"
)

// Entry is one distilled fact before it is reconciled into the store.
type Entry struct {
	Category   string  `json:"category"`
	Subject    string  `json:"subject"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Strategy extracts knowledge entries from a session's turns.
type Strategy interface {
	Name() string
	Distill(ctx context.Context, turns []store.Turn) ([]Entry, error)
}

// externalTimeout bounds the external-model call so session-end hooks
// cannot hang on a slow endpoint.
const externalTimeout = 30 * time.Second

// Distiller runs a strategy over a session and records the results.
type Distiller struct {
	store    *store.Store
	primary  Strategy
	fallback Strategy
}

// New creates a Distiller. primary may be nil, leaving only the
// heuristic fallback.
func New(s *store.Store, primary Strategy) *Distiller {
	return &Distiller{store: s, primary: primary, fallback: &Heuristic{}}
}

// Run distills one session and upserts the results. The number of
// entries recorded is returned.
func (d *Distiller) Run(ctx context.Context, sessionID string) (int, error) {
	turns, err := d.store.SessionTurns(sessionID)
	if err != nil {
		return 0, err
	}
	if len(turns) == 0 {
		return 0, nil
	}

	entries, source := d.distill(ctx, turns)
	saved := 0
	for _, e := range entries {
		if !store.ValidCategory(e.Category) || e.Subject == "" || e.Content == "" {
			continue
		}
		if _, err := d.store.UpsertKnowledge(store.UpsertKnowledgeParams{
			SessionID:  sessionID,
			Category:   e.Category,
			Subject:    e.Subject,
			Content:    e.Content,
			Source:     source,
			Confidence: clampConfidence(e.Confidence),
		}); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

func (d *Distiller) distill(ctx context.Context, turns []store.Turn) ([]Entry, string) {
	if d.primary != nil {
		cctx, cancel := context.WithTimeout(ctx, externalTimeout)
		entries, err := d.primary.Distill(cctx, turns)
		cancel()
		if err == nil && len(entries) > 0 {
			return entries, d.primary.Name()
		}
		if err != nil {
			log.Printf("[recall] %s distillation failed, using heuristics: %v", d.primary.Name(), err)
		}
	}
	entries, _ := d.fallback.Distill(ctx, turns)
	return entries, d.fallback.Name()
}

func clampConfidence(c float64) float64 {
	if c < 0.1 {
		return 0.1
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}
