package store

import (
	"database/sql"
	"strings"
)

// ─── Knowledge ───────────────────────────────────────────────────────────────

// UpsertKnowledgeParams holds the input for recording a distilled fact.
type UpsertKnowledgeParams struct {
	SessionID  string
	Category   string
	Subject    string
	Content    string
	Source     string
	Confidence float64
}

// UpsertKnowledge records a distilled fact, reconciling it against the
// active entry with the same category and subject:
//
//   - no active entry: a new row is inserted
//   - contents agree: the existing entry is confirmed (confidence +0.1,
//     capped at 1.0) and no row is added
//   - contents disagree: the old entry loses half its confidence and is
//     linked to a fresh row via superseded_by
//
// Returns the ID of the surviving (active) entry.
func (s *Store) UpsertKnowledge(p UpsertKnowledgeParams) (int64, error) {
	if p.Source == "" {
		p.Source = "heuristic"
	}
	if p.Confidence <= 0 {
		p.Confidence = 0.5
	}

	var existingID int64
	var existingContent string
	err := s.db.QueryRow(
		`SELECT id, content FROM knowledge
		 WHERE category = ? AND subject = ? AND superseded_by IS NULL
		 ORDER BY id DESC LIMIT 1`,
		p.Category, p.Subject,
	).Scan(&existingID, &existingContent)

	switch {
	case err == sql.ErrNoRows:
		return s.insertKnowledge(p)
	case err != nil:
		return 0, mapErr(err)
	}

	if contentsAgree(existingContent, p.Content) {
		_, err := s.db.Exec(
			`UPDATE knowledge
			 SET confidence = MIN(1.0, confidence + 0.1),
			     last_confirmed = datetime('now')
			 WHERE id = ?`,
			existingID,
		)
		return existingID, mapErr(err)
	}

	// Contradiction: demote the old entry and supersede it.
	newID, err := s.insertKnowledge(p)
	if err != nil {
		return 0, err
	}
	_, err = s.db.Exec(
		`UPDATE knowledge SET confidence = confidence * 0.5, superseded_by = ? WHERE id = ?`,
		newID, existingID,
	)
	return newID, mapErr(err)
}

func (s *Store) insertKnowledge(p UpsertKnowledgeParams) (int64, error) {
	res, err := s.execHook(s.db,
		`INSERT INTO knowledge (session_id, category, subject, content, source, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.SessionID, p.Category, p.Subject, p.Content, p.Source, p.Confidence,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// KnowledgeByCategory returns active knowledge of one category, most
// confident first. minConfidence filters out weak entries.
func (s *Store) KnowledgeByCategory(category string, minConfidence float64, limit int) ([]KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryKnowledge(
		`SELECT id, session_id, category, subject, content, source, confidence,
		        created_at, last_confirmed, superseded_by
		 FROM knowledge
		 WHERE category = ? AND superseded_by IS NULL AND confidence > ?
		 ORDER BY confidence DESC, id DESC
		 LIMIT ?`,
		category, minConfidence, limit,
	)
}

// AllKnowledge returns every active knowledge entry, newest first.
func (s *Store) AllKnowledge(limit int) ([]KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryKnowledge(
		`SELECT id, session_id, category, subject, content, source, confidence,
		        created_at, last_confirmed, superseded_by
		 FROM knowledge
		 WHERE superseded_by IS NULL
		 ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// SearchKnowledge runs an FTS query over active knowledge, optionally
// filtered by category.
func (s *Store) SearchKnowledge(query, category string, limit int) ([]KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	sanitized := sanitizeFTS(query)
	if sanitized == "" {
		return nil, nil
	}

	q := `
		SELECT k.id, k.session_id, k.category, k.subject, k.content, k.source,
		       k.confidence, k.created_at, k.last_confirmed, k.superseded_by
		FROM knowledge_fts f
		JOIN knowledge k ON k.id = f.rowid
		WHERE knowledge_fts MATCH ? AND k.superseded_by IS NULL
	`
	args := []any{sanitized}
	if category != "" {
		q += " AND k.category = ?"
		args = append(args, category)
	}
	q += " ORDER BY bm25(knowledge_fts), k.id DESC LIMIT ?"
	args = append(args, limit)

	return s.queryKnowledge(q, args...)
}

func (s *Store) queryKnowledge(query string, args ...any) ([]KnowledgeEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []KnowledgeEntry
	for rows.Next() {
		var k KnowledgeEntry
		if err := rows.Scan(&k.ID, &k.SessionID, &k.Category, &k.Subject, &k.Content,
			&k.Source, &k.Confidence, &k.CreatedAt, &k.LastConfirmed, &k.SupersededBy); err != nil {
			return nil, err
		}
		entries = append(entries, k)
	}
	return entries, rows.Err()
}

// contentsAgree reports whether two knowledge contents describe the same
// fact: more than 40% of the significant words of the shorter one appear
// in the other.
func contentsAgree(a, b string) bool {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	if len(wordsA) > len(wordsB) {
		wordsA, wordsB = wordsB, wordsA
	}
	set := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		set[w] = true
	}
	overlap := 0
	for _, w := range wordsA {
		if set[w] {
			overlap++
		}
	}
	return float64(overlap)/float64(len(wordsA)) > 0.4
}

func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, `.,;:!?"'()`)
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	return words
}
