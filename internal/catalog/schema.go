// Package catalog keeps a SQLite mirror of the note collection keyed by the
// rule names each note carries. The TOML files stay authoritative; the
// catalog is rebuilt from them whenever they change.
package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	pos      INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	contents TEXT NOT NULL DEFAULT '',
	time     TEXT NOT NULL DEFAULT '',
	rules    TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS note_rules (
	pos  INTEGER NOT NULL REFERENCES notes(pos) ON DELETE CASCADE,
	rule TEXT NOT NULL,
	UNIQUE(pos, rule)
);

CREATE TABLE IF NOT EXISTS rules (
	pos      INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	keywords TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_note_rules_rule ON note_rules(rule);
CREATE INDEX IF NOT EXISTS idx_notes_name ON notes(name);
`

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the catalog database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
