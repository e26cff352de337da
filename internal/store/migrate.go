package store

import "database/sql"

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			project_dir TEXT NOT NULL,
			started_at  TEXT NOT NULL DEFAULT (datetime('now')),
			ended_at    TEXT,
			summary     TEXT
		);

		CREATE TABLE IF NOT EXISTS turns (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			seq        INTEGER NOT NULL,
			kind       TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (session_id) REFERENCES sessions(id),
			UNIQUE (session_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
		CREATE INDEX IF NOT EXISTS idx_turns_kind    ON turns(kind);
		CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at DESC);

		CREATE TABLE IF NOT EXISTS turn_files (
			turn_id   INTEGER NOT NULL,
			file_path TEXT    NOT NULL,
			FOREIGN KEY (turn_id) REFERENCES turns(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_turn_files_turn ON turn_files(turn_id);
		CREATE INDEX IF NOT EXISTS idx_turn_files_path ON turn_files(file_path);

		CREATE VIRTUAL TABLE IF NOT EXISTS turns_fts USING fts5(
			content,
			kind,
			content='turns',
			content_rowid='id',
			tokenize='porter unicode61'
		);

		CREATE TABLE IF NOT EXISTS symbols (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path    TEXT    NOT NULL,
			name         TEXT    NOT NULL,
			kind         TEXT    NOT NULL,
			start_line   INTEGER NOT NULL,
			end_line     INTEGER NOT NULL,
			signature    TEXT,
			content_hash TEXT    NOT NULL,
			indexed_at   TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
		CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
		CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

		CREATE TABLE IF NOT EXISTS knowledge (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id     TEXT    NOT NULL,
			category       TEXT    NOT NULL,
			subject        TEXT    NOT NULL,
			content        TEXT    NOT NULL,
			source         TEXT    NOT NULL DEFAULT 'heuristic',
			confidence     REAL    NOT NULL DEFAULT 0.5,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now')),
			last_confirmed TEXT    NOT NULL DEFAULT (datetime('now')),
			superseded_by  INTEGER,
			FOREIGN KEY (superseded_by) REFERENCES knowledge(id)
		);

		CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge(category, subject);
		CREATE INDEX IF NOT EXISTS idx_knowledge_active   ON knowledge(superseded_by) WHERE superseded_by IS NULL;

		CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
			subject,
			content,
			category,
			content='knowledge',
			content_rowid='id',
			tokenize='porter unicode61'
		);

		CREATE TABLE IF NOT EXISTS checkpoints (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			summary    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_checkpoints_session ON checkpoints(session_id, id DESC);

		CREATE TABLE IF NOT EXISTS background_tasks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			task_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			payload    TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			started_at TEXT,
			ended_at   TEXT,
			error      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_status ON background_tasks(status, id);

		CREATE TABLE IF NOT EXISTS hook_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			hook       TEXT NOT NULL,
			session_id TEXT,
			ok         INTEGER NOT NULL DEFAULT 1,
			detail     TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_hook_log_created ON hook_log(created_at DESC);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='turns_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER turns_fts_insert AFTER INSERT ON turns BEGIN
				INSERT INTO turns_fts(rowid, content, kind)
				VALUES (new.id, new.content, new.kind);
			END;

			CREATE TRIGGER turns_fts_delete AFTER DELETE ON turns BEGIN
				INSERT INTO turns_fts(turns_fts, rowid, content, kind)
				VALUES ('delete', old.id, old.content, old.kind);
			END;

			CREATE TRIGGER turns_fts_update AFTER UPDATE ON turns BEGIN
				INSERT INTO turns_fts(turns_fts, rowid, content, kind)
				VALUES ('delete', old.id, old.content, old.kind);
				INSERT INTO turns_fts(rowid, content, kind)
				VALUES (new.id, new.content, new.kind);
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var kname string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='knowledge_fts_insert'",
	).Scan(&kname)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER knowledge_fts_insert AFTER INSERT ON knowledge BEGIN
				INSERT INTO knowledge_fts(rowid, subject, content, category)
				VALUES (new.id, new.subject, new.content, new.category);
			END;

			CREATE TRIGGER knowledge_fts_delete AFTER DELETE ON knowledge BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, subject, content, category)
				VALUES ('delete', old.id, old.subject, old.content, old.category);
			END;

			CREATE TRIGGER knowledge_fts_update AFTER UPDATE ON knowledge BEGIN
				INSERT INTO knowledge_fts(knowledge_fts, rowid, subject, content, category)
				VALUES ('delete', old.id, old.subject, old.content, old.category);
				INSERT INTO knowledge_fts(rowid, subject, content, category)
				VALUES (new.id, new.subject, new.content, new.category);
			END;
		`
		if _, err := s.execHook(s.db, triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}
