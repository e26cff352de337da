// Package tasks executes queued background work: stale reindexing and
// session distillation. The server polls the queue continuously; hooks
// drain a few tasks opportunistically so the queue moves even when no
// server is running.
package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/HendryAvila/recall/internal/distill"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/HendryAvila/recall/internal/symbols"
)

// pollInterval paces the server's queue polling.
const pollInterval = 300 * time.Millisecond

// Executor claims and runs background tasks.
type Executor struct {
	store     *store.Store
	indexer   *symbols.Indexer
	distiller *distill.Distiller
}

// NewExecutor creates an Executor.
func NewExecutor(s *store.Store, ix *symbols.Indexer, d *distill.Distiller) *Executor {
	return &Executor{store: s, indexer: ix, distiller: d}
}

// RunPending claims and executes up to max pending tasks, returning how
// many ran. Task failures are recorded on the task, not returned.
func (e *Executor) RunPending(ctx context.Context, max int) int {
	ran := 0
	for ran < max {
		if ctx.Err() != nil {
			return ran
		}
		task, err := e.store.ClaimNextTask()
		if err != nil || task == nil {
			return ran
		}
		e.execute(ctx, task)
		ran++
	}
	return ran
}

// Poll drains the queue until the context is canceled. Stuck tasks from
// crashed processes are requeued periodically.
func (e *Executor) Poll(ctx context.Context) {
	maint := time.NewTicker(time.Minute)
	defer maint.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	if _, err := e.store.RecoverStuckTasks(); err != nil {
		log.Printf("[recall] recover stuck tasks: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-maint.C:
			if _, err := e.store.RecoverStuckTasks(); err != nil {
				log.Printf("[recall] recover stuck tasks: %v", err)
			}
			if err := e.store.PruneTasks(); err != nil {
				log.Printf("[recall] prune tasks: %v", err)
			}
		case <-tick.C:
			e.RunPending(ctx, 10)
		}
	}
}

func (e *Executor) execute(ctx context.Context, task *store.Task) {
	var err error
	switch task.Type {
	case store.TaskReindexStale:
		if e.indexer == nil {
			err = fmt.Errorf("no indexer available")
		} else {
			var n int
			n, err = e.indexer.ReindexStale()
			if err == nil && n > 0 {
				log.Printf("[recall] reindexed %d stale files", n)
			}
		}
	case store.TaskDistillSession:
		sessionID := strings.TrimSpace(task.Payload)
		if sessionID == "" {
			err = fmt.Errorf("distill task without session id")
		} else if e.distiller == nil {
			err = fmt.Errorf("no distiller available")
		} else {
			_, err = e.distiller.Run(ctx, sessionID)
		}
	default:
		err = fmt.Errorf("unknown task type %q", task.Type)
	}

	if err != nil {
		if ferr := e.store.FailTask(task.ID, err.Error()); ferr != nil {
			log.Printf("[recall] fail task %d: %v", task.ID, ferr)
		}
		return
	}
	if cerr := e.store.CompleteTask(task.ID); cerr != nil {
		log.Printf("[recall] complete task %d: %v", task.ID, cerr)
	}
}
