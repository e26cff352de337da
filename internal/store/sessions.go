package store

// ─── Sessions ────────────────────────────────────────────────────────────────

// EnsureSession registers a session if it is not already known.
func (s *Store) EnsureSession(id, projectDir string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, project_dir) VALUES (?, ?)`,
		id, projectDir,
	)
	return mapErr(err)
}

// EndSession marks a session as completed with an optional summary. The
// summary is written once: a session already carrying one keeps it.
func (s *Store) EndSession(id, summary string) error {
	_, err := s.db.Exec(
		`UPDATE sessions
		 SET ended_at = datetime('now'),
		     summary  = COALESCE(summary, ?)
		 WHERE id = ?`,
		nullableString(summary), id,
	)
	return mapErr(err)
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, project_dir, started_at, ended_at, summary FROM sessions WHERE id = ?`, id,
	)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.ProjectDir, &sess.StartedAt, &sess.EndedAt, &sess.Summary); err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

// RecentSessions returns the most recently active sessions with turn counts.
func (s *Store) RecentSessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.started_at, s.ended_at, s.summary, COUNT(t.id)
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY MAX(COALESCE(t.created_at, s.started_at)) DESC, MAX(COALESCE(t.id, 0)) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var results []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.StartedAt, &ss.EndedAt, &ss.Summary, &ss.TurnCount); err != nil {
			return nil, err
		}
		results = append(results, ss)
	}
	return results, rows.Err()
}
