package store

import "database/sql"

// ─── Background tasks ────────────────────────────────────────────────────────

// Task is a queued unit of deferred work. Hooks enqueue tasks so they can
// return quickly; the server's poller claims and executes them.
type Task struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Payload   string `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Task types.
const (
	TaskReindexStale   = "reindex_stale"
	TaskDistillSession = "distill_session"
)

// EnqueueTask queues a task for background execution.
func (s *Store) EnqueueTask(taskType, payload string) (int64, error) {
	res, err := s.execHook(s.db,
		`INSERT INTO background_tasks (task_type, payload) VALUES (?, ?)`,
		taskType, nullableString(payload),
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// ClaimNextTask atomically claims the oldest pending task, or returns nil
// when the queue is empty. The UPDATE...RETURNING makes the claim safe
// across processes.
func (s *Store) ClaimNextTask() (*Task, error) {
	row := s.db.QueryRow(`
		UPDATE background_tasks
		SET status = 'running', started_at = datetime('now')
		WHERE id = (
			SELECT id FROM background_tasks WHERE status = 'pending' ORDER BY id LIMIT 1
		)
		RETURNING id, task_type, status, COALESCE(payload, ''), created_at`,
	)
	var t Task
	err := row.Scan(&t.ID, &t.Type, &t.Status, &t.Payload, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// CompleteTask marks a task as done.
func (s *Store) CompleteTask(id int64) error {
	_, err := s.db.Exec(
		`UPDATE background_tasks SET status = 'done', ended_at = datetime('now') WHERE id = ?`, id,
	)
	return mapErr(err)
}

// FailTask marks a task as failed with an error message.
func (s *Store) FailTask(id int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE background_tasks
		 SET status = 'failed', ended_at = datetime('now'), error = ?
		 WHERE id = ?`,
		Truncate(errMsg, 500), id,
	)
	return mapErr(err)
}

// RecoverStuckTasks requeues tasks that were claimed but never finished,
// typically because the claiming process crashed. Returns the number of
// tasks recovered.
func (s *Store) RecoverStuckTasks() (int64, error) {
	res, err := s.db.Exec(
		`UPDATE background_tasks
		 SET status = 'pending', started_at = NULL
		 WHERE status = 'running' AND started_at < datetime('now', '-10 minutes')`,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

// PruneTasks deletes finished tasks older than a week.
func (s *Store) PruneTasks() error {
	_, err := s.db.Exec(
		`DELETE FROM background_tasks
		 WHERE status IN ('done', 'failed') AND created_at < datetime('now', '-7 days')`,
	)
	return mapErr(err)
}
