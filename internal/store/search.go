package store

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// TurnSearchOptions holds filters for turn search.
type TurnSearchOptions struct {
	Kind      string
	SessionID string
	Limit     int
}

// SearchTurns runs an FTS5 query over turn content and returns matches
// with their bm25 relevance, best match first. Rank is normalized so
// higher is better.
func (s *Store) SearchTurns(query string, opts TurnSearchOptions) ([]TurnSearchResult, error) {
	sanitized := sanitizeFTS(query)
	if sanitized == "" {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	q := `
		SELECT t.id, t.session_id, t.seq, t.kind, t.content, t.created_at,
		       bm25(turns_fts) AS score
		FROM turns_fts f
		JOIN turns t ON t.id = f.rowid
		WHERE turns_fts MATCH ?
	`
	args := []any{sanitized}
	if opts.Kind != "" {
		q += " AND t.kind = ?"
		args = append(args, opts.Kind)
	}
	if opts.SessionID != "" {
		q += " AND t.session_id = ?"
		args = append(args, opts.SessionID)
	}
	q += " ORDER BY score, t.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var results []TurnSearchResult
	for rows.Next() {
		var r TurnSearchResult
		var score float64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Seq, &r.Kind, &r.Content,
			&r.CreatedAt, &score); err != nil {
			return nil, err
		}
		// bm25 is lower-is-better and negative for good matches.
		r.Rank = -score
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		files, err := s.turnFiles(results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Files = files
	}
	return results, nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// GetStats returns aggregate counts for the status report.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{TurnsByKind: map[string]int{}}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return nil, mapErr(err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM turns`).Scan(&st.Turns); err != nil {
		return nil, mapErr(err)
	}
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM turns GROUP BY kind`)
	if err != nil {
		return nil, mapErr(err)
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		st.TurnsByKind[kind] = n
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&st.Symbols); err != nil {
		return nil, mapErr(err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT file_path) FROM symbols`).Scan(&st.IndexedFiles); err != nil {
		return nil, mapErr(err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM knowledge WHERE superseded_by IS NULL`).Scan(&st.Knowledge); err != nil {
		return nil, mapErr(err)
	}
	return st, nil
}

// ─── Hook log ────────────────────────────────────────────────────────────────

// HookLogEntry records one hook invocation for the status report.
type HookLogEntry struct {
	Hook      string `json:"hook"`
	SessionID string `json:"session_id,omitempty"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// LogHook records a hook invocation. Best effort: failures are ignored so
// logging never breaks a hook.
func (s *Store) LogHook(hook, sessionID string, ok bool, detail string) {
	okVal := 0
	if ok {
		okVal = 1
	}
	_, _ = s.db.Exec(
		`INSERT INTO hook_log (hook, session_id, ok, detail) VALUES (?, ?, ?, ?)`,
		hook, nullableString(sessionID), okVal, nullableString(detail),
	)
}

// RecentHookActivity returns hook invocations from the last 24 hours,
// newest first.
func (s *Store) RecentHookActivity(limit int) ([]HookLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT hook, COALESCE(session_id, ''), ok, COALESCE(detail, ''), created_at
		 FROM hook_log
		 WHERE created_at > datetime('now', '-1 day')
		 ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HookLogEntry
	for rows.Next() {
		var e HookLogEntry
		var ok int
		if err := rows.Scan(&e.Hook, &e.SessionID, &ok, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OK = ok == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
