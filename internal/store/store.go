// Package store implements the persistent memory store for recall.
//
// It uses SQLite with FTS5 full-text search to hold everything the engine
// remembers about a project: sessions, conversation turns, extracted code
// symbols, distilled knowledge, checkpoints, and the background task queue.
// One database per project, WAL mode, safe for concurrent short-lived
// writers (hook processes) alongside a long-lived reader (the server).
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrBusy is returned when SQLite reports lock contention that outlasted
// the busy timeout. Callers on the hook path treat it as retriable.
var ErrBusy = errors.New("store: database busy")

// ─── Types ───────────────────────────────────────────────────────────────────

// Session represents one AI coding session against the project.
type Session struct {
	ID         string  `json:"id"`
	ProjectDir string  `json:"project_dir"`
	StartedAt  string  `json:"started_at"`
	EndedAt    *string `json:"ended_at,omitempty"`
	Summary    *string `json:"summary,omitempty"`
}

// SessionSummary is a compact view of a session with its turn count.
type SessionSummary struct {
	ID        string  `json:"id"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
	Summary   *string `json:"summary,omitempty"`
	TurnCount int     `json:"turn_count"`
}

// Turn is a single recorded event within a session: a user prompt, a file
// edit, a file read, a shell command, or a synthesized checkpoint.
type Turn struct {
	ID        int64    `json:"id"`
	SessionID string   `json:"session_id"`
	Seq       int      `json:"seq"`
	Kind      string   `json:"kind"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
	Files     []string `json:"files,omitempty"`
}

// Turn kinds.
const (
	KindPrompt     = "prompt"
	KindEdit       = "edit"
	KindRead       = "read"
	KindBash       = "bash"
	KindCheckpoint = "checkpoint"
)

// AppendTurnParams holds the input for recording a turn.
type AppendTurnParams struct {
	SessionID string
	Kind      string
	Content   string
	Files     []string
}

// TurnSearchResult embeds a Turn with its FTS5 relevance score.
type TurnSearchResult struct {
	Turn
	Rank float64 `json:"rank"`
}

// Symbol is one extracted code symbol (function, type, method, ...).
type Symbol struct {
	ID        int64  `json:"id"`
	FilePath  string `json:"file_path"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Signature string `json:"signature,omitempty"`
}

// KnowledgeEntry is one distilled fact about the project.
type KnowledgeEntry struct {
	ID            int64   `json:"id"`
	SessionID     string  `json:"session_id"`
	Category      string  `json:"category"`
	Subject       string  `json:"subject"`
	Content       string  `json:"content"`
	Source        string  `json:"source"`
	Confidence    float64 `json:"confidence"`
	CreatedAt     string  `json:"created_at"`
	LastConfirmed string  `json:"last_confirmed"`
	SupersededBy  *int64  `json:"superseded_by,omitempty"`
}

// Knowledge categories.
const (
	CategoryDecision     = "decision"
	CategoryConvention   = "convention"
	CategoryPreference   = "preference"
	CategoryBugfix       = "bugfix"
	CategoryPattern      = "pattern"
	CategoryArchitecture = "architecture"
)

// ValidCategory reports whether c is a recognized knowledge category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryDecision, CategoryConvention, CategoryPreference,
		CategoryBugfix, CategoryPattern, CategoryArchitecture:
		return true
	}
	return false
}

// Checkpoint is a synthesized summary of session state taken before the
// host compacts its context window.
type Checkpoint struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// FileActivity is a file the sessions have touched, with recency info.
type FileActivity struct {
	Path        string `json:"path"`
	Touches     int    `json:"touches"`
	LastTouched string `json:"last_touched"`
}

// Stats holds aggregate counts for the status report.
type Stats struct {
	Sessions     int            `json:"sessions"`
	Turns        int            `json:"turns"`
	TurnsByKind  map[string]int `json:"turns_by_kind"`
	Symbols      int            `json:"symbols"`
	IndexedFiles int            `json:"indexed_files"`
	Knowledge    int            `json:"knowledge"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	// DataDir is the directory holding the database, normally
	// <project>/.recall. Created on open if missing.
	DataDir string

	// MaxTurnLength caps stored turn content in bytes. Content is
	// truncated before it is written so re-ingesting a stored value
	// is a no-op.
	MaxTurnLength int

	// BusyTimeout is handed to SQLite's busy handler. Contention that
	// outlasts it surfaces as ErrBusy.
	BusyTimeout time.Duration
}

// DefaultConfig returns the default configuration for a project directory.
func DefaultConfig(projectDir string) Config {
	return Config{
		DataDir:       filepath.Join(projectDir, ".recall"),
		MaxTurnLength: 2048,
		BusyTimeout:   3 * time.Second,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory store backed by SQLite + FTS5.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

// Open opens (creating if needed) the store for a project directory.
func Open(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "recall.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	busyMS := int(cfg.BusyTimeout / time.Millisecond)
	if busyMS <= 0 {
		busyMS = 3000
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyMS),
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Flush forces the WAL into the main database file so everything written
// so far is durable before a checkpoint is taken.
func (s *Store) Flush() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
	return mapErr(err)
}

// Config returns the configuration the store was opened with.
func (s *Store) Config() Config {
	return s.cfg
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// mapErr converts SQLite lock-contention errors to ErrBusy and leaves
// everything else untouched.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Truncate shortens a string to at most max bytes of content, marking the
// cut. The cut backs up to a UTF-8 rune boundary so multibyte characters
// are never split. Strings at or under max (and strings already carrying
// the marker at the cut point) pass through unchanged, so truncation is
// idempotent.
func Truncate(s string, max int) string {
	const marker = "... [truncated]"
	if max <= 0 || len(s) <= max {
		return s
	}
	if strings.HasSuffix(s, marker) && len(s) <= max+len(marker) {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// HashContent returns a stable hex digest of file content, used to skip
// re-indexing unchanged files.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// ParseTime parses a SQLite timestamp produced by Now or datetime('now').
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
}
