package store

import "database/sql"

// ─── Checkpoints ─────────────────────────────────────────────────────────────

// SaveCheckpoint records a pre-compaction checkpoint for a session.
func (s *Store) SaveCheckpoint(sessionID, summary string) (int64, error) {
	res, err := s.execHook(s.db,
		`INSERT INTO checkpoints (session_id, summary) VALUES (?, ?)`,
		sessionID, summary,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// LatestCheckpoint returns the most recent checkpoint of a session, or nil.
func (s *Store) LatestCheckpoint(sessionID string) (*Checkpoint, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, summary, created_at
		 FROM checkpoints WHERE session_id = ? ORDER BY id DESC LIMIT 1`,
		sessionID,
	)
	var cp Checkpoint
	err := row.Scan(&cp.ID, &cp.SessionID, &cp.Summary, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &cp, nil
}
