package store

import "database/sql"

// ─── Turns ───────────────────────────────────────────────────────────────────

// AppendTurn records a turn and its associated files atomically, assigning
// the next per-session sequence number. Content is truncated to the
// configured limit before it is written.
func (s *Store) AppendTurn(p AppendTurnParams) (int64, error) {
	content := Truncate(p.Content, s.cfg.MaxTurnLength)

	tx, err := s.beginTxHook()
	if err != nil {
		return 0, mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO turns (session_id, seq, kind, content)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?
		 FROM turns WHERE session_id = ?`,
		p.SessionID, p.Kind, content, p.SessionID,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, f := range p.Files {
		if f == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO turn_files (turn_id, file_path) VALUES (?, ?)`, id, f,
		); err != nil {
			return 0, mapErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, mapErr(err)
	}
	return id, nil
}

// LastTurn returns the most recent turn of a session, or nil if the
// session has none.
func (s *Store) LastTurn(sessionID string) (*Turn, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, seq, kind, content, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT 1`,
		sessionID,
	)
	var t Turn
	err := row.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Kind, &t.Content, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	t.Files, err = s.turnFiles(t.ID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SessionTurns returns all turns of a session in sequence order, each with
// its file list.
func (s *Store) SessionTurns(sessionID string) ([]Turn, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, seq, kind, content, created_at
		 FROM turns WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(turns)
}

// SessionTurnsByKind returns a session's turns of one kind, in sequence order.
func (s *Store) SessionTurnsByKind(sessionID, kind string) ([]Turn, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, seq, kind, content, created_at
		 FROM turns WHERE session_id = ? AND kind = ? ORDER BY seq`,
		sessionID, kind,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(turns)
}

// RecentTurns returns the newest turns across all sessions, newest first.
func (s *Store) RecentTurns(limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, seq, kind, content, created_at
		 FROM turns ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(turns)
}

// ActiveFiles returns the files touched by turns, most recently touched
// first. sessionID narrows to one session when non-empty.
func (s *Store) ActiveFiles(sessionID string, limit int) ([]FileActivity, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT tf.file_path, COUNT(*), MAX(t.created_at)
		FROM turn_files tf
		JOIN turns t ON t.id = tf.turn_id
	`
	args := []any{}
	if sessionID != "" {
		query += " WHERE t.session_id = ?"
		args = append(args, sessionID)
	}
	query += " GROUP BY tf.file_path ORDER BY MAX(t.id) DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var results []FileActivity
	for rows.Next() {
		var fa FileActivity
		if err := rows.Scan(&fa.Path, &fa.Touches, &fa.LastTouched); err != nil {
			return nil, err
		}
		results = append(results, fa)
	}
	return results, rows.Err()
}

// FileHistory returns the turns that touched a file, newest first.
func (s *Store) FileHistory(filePath string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT t.id, t.session_id, t.seq, t.kind, t.content, t.created_at
		 FROM turns t
		 JOIN turn_files tf ON tf.turn_id = t.id
		 WHERE tf.file_path = ?
		 ORDER BY t.id DESC LIMIT ?`,
		filePath, limit,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	turns, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	return s.attachFiles(turns)
}

func scanTurns(rows *sql.Rows) ([]Turn, error) {
	defer func() { _ = rows.Close() }()
	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Kind, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *Store) turnFiles(turnID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT file_path FROM turn_files WHERE turn_id = ? ORDER BY rowid`, turnID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) attachFiles(turns []Turn) ([]Turn, error) {
	for i := range turns {
		files, err := s.turnFiles(turns[i].ID)
		if err != nil {
			return nil, err
		}
		turns[i].Files = files
	}
	return turns, nil
}
