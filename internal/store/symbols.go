package store

import "database/sql"

// ─── Symbols ─────────────────────────────────────────────────────────────────

// ReplaceFileSymbols atomically swaps a file's symbol rows for a fresh
// parse. Readers never observe a partially indexed file: they see the old
// set or the new set.
func (s *Store) ReplaceFileSymbols(filePath, contentHash string, symbols []Symbol) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_path = ?`, filePath); err != nil {
		return mapErr(err)
	}
	for _, sym := range symbols {
		if _, err := tx.Exec(
			`INSERT INTO symbols (file_path, name, kind, start_line, end_line, signature, content_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			filePath, sym.Name, sym.Kind, sym.StartLine, sym.EndLine,
			nullableString(sym.Signature), contentHash,
		); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit())
}

// DeleteFileSymbols removes all symbols for a file, used when the file is
// deleted from disk.
func (s *Store) DeleteFileSymbols(filePath string) error {
	_, err := s.db.Exec(`DELETE FROM symbols WHERE file_path = ?`, filePath)
	return mapErr(err)
}

// FileContentHash returns the content hash a file was last indexed at,
// or "" if the file has never been indexed.
func (s *Store) FileContentHash(filePath string) (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT content_hash FROM symbols WHERE file_path = ? LIMIT 1`, filePath,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", mapErr(err)
	}
	return hash, nil
}

// FileSymbols returns all symbols of one file in line order.
func (s *Store) FileSymbols(filePath string) ([]Symbol, error) {
	return s.querySymbols(
		`SELECT id, file_path, name, kind, start_line, end_line, COALESCE(signature, '')
		 FROM symbols WHERE file_path = ? ORDER BY start_line`,
		filePath,
	)
}

// SearchSymbols finds symbols by name substring, optionally filtered by
// file path substring and kind.
func (s *Store) SearchSymbols(name, filePath, kind string, limit int) ([]Symbol, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, file_path, name, kind, start_line, end_line, COALESCE(signature, '')
		FROM symbols WHERE 1=1
	`
	args := []any{}
	if name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}
	if filePath != "" {
		query += " AND file_path LIKE ?"
		args = append(args, "%"+filePath+"%")
	}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY file_path, start_line LIMIT ?"
	args = append(args, limit)

	return s.querySymbols(query, args...)
}

// IndexedFiles returns the distinct file paths present in the symbol index.
func (s *Store) IndexedFiles() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT file_path FROM symbols ORDER BY file_path`)
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

// SymbolCountsByKind returns how many symbols of each kind are indexed.
func (s *Store) SymbolCountsByKind() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM symbols GROUP BY kind`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func (s *Store) querySymbols(query string, args ...any) ([]Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var symbols []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.ID, &sym.FilePath, &sym.Name, &sym.Kind,
			&sym.StartLine, &sym.EndLine, &sym.Signature); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
