// Package ledger implements the Build Ledger (spec §4.10, C11): a small
// SQLite-backed store recording build runs and query audit entries. It is
// purely additive operational visibility, never consulted by scoring or
// ranking. Adapted from internal/store/sqlite_store.go's schema-as-const,
// database/sql-over-ncruces, mutex-guarded-struct shape, trimmed from the
// note-taking schema (notes/entities/edges) to builds/queries.
package ledger

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// Ledger is the SQLite-backed build/query audit log.
type Ledger struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS builds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at INTEGER NOT NULL,
    document_count INTEGER NOT NULL,
    dropped_duplicate_count INTEGER NOT NULL,
    elapsed_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS queries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query_text TEXT NOT NULL,
    term_count INTEGER NOT NULL,
    candidate_count INTEGER NOT NULL,
    top_doc_id INTEGER,
    elapsed_ns INTEGER NOT NULL
);
`

// Open creates (or opens) a ledger at dsn. Use ":memory:" for tests or an
// ephemeral run; pass a file path (e.g. "<indexFolder>/ledger.db") for a
// persistent audit log.
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// BuildRecord is one row of the builds table (spec §4.10). StartedAt and
// ElapsedNS are caller-supplied: this module never calls wall-clock time
// internally.
type BuildRecord struct {
	StartedAt             int64
	DocumentCount         int
	DroppedDuplicateCount int
	ElapsedNS             int64
}

// RecordBuild appends one row to the builds table.
func (l *Ledger) RecordBuild(r BuildRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Exec(`
		INSERT INTO builds (started_at, document_count, dropped_duplicate_count, elapsed_ns)
		VALUES (?, ?, ?, ?)
	`, r.StartedAt, r.DocumentCount, r.DroppedDuplicateCount, r.ElapsedNS)
	return err
}

// QueryRecord is one row of the queries table (spec §4.10).
type QueryRecord struct {
	QueryText      string
	TermCount      int
	CandidateCount int
	TopDocID       *int64
	ElapsedNS      int64
}

// RecordQuery appends one row to the queries table. Per spec §4.10/§4.6
// (ledger writes are best-effort and never block or fail a query), callers
// should log rather than propagate any error this returns.
func (l *Ledger) RecordQuery(r QueryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Exec(`
		INSERT INTO queries (query_text, term_count, candidate_count, top_doc_id, elapsed_ns)
		VALUES (?, ?, ?, ?, ?)
	`, r.QueryText, r.TermCount, r.CandidateCount, r.TopDocID, r.ElapsedNS)
	return err
}

// BuildCount returns the number of recorded builds.
func (l *Ledger) BuildCount() (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&count)
	return count, err
}

// QueryCount returns the number of recorded queries.
func (l *Ledger) QueryCount() (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM queries").Scan(&count)
	return count, err
}
