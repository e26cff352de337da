package store

import "database/sql"

// DB exposes the internal *sql.DB for test helpers in store_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetExecHook installs an exec interceptor for failure-injection tests.
// A nil fn restores the real Exec.
func (s *Store) SetExecHook(fn func(db execer, query string, args ...any) (sql.Result, error)) {
	s.hooks.exec = fn
}

// SetBeginTxHook installs a transaction-begin interceptor for
// failure-injection tests. A nil fn restores the real Begin.
func (s *Store) SetBeginTxHook(fn func(db *sql.DB) (*sql.Tx, error)) {
	s.hooks.beginTx = fn
}

// Exported for tests.
var (
	MapErr        = mapErr
	SanitizeFTS   = sanitizeFTS
	ContentsAgree = contentsAgree
)

type Execer = execer
