package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the lexicon database.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sources (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT NOT NULL,
  format          TEXT NOT NULL,
  imported_at     TIMESTAMP
);

CREATE TABLE IF NOT EXISTS senses (
  id              INTEGER PRIMARY KEY,
  source_id       INTEGER REFERENCES sources(id),
  key             TEXT NOT NULL UNIQUE,
  pos             TEXT NOT NULL,
  gloss           TEXT
);

CREATE TABLE IF NOT EXISTS sense_lemmas (
  id              INTEGER PRIMARY KEY,
  sense_id        INTEGER NOT NULL REFERENCES senses(id),
  lemma           TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  rank            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS relations (
  id              INTEGER PRIMARY KEY,
  source_id       INTEGER REFERENCES sources(id),
  source_sense_id INTEGER NOT NULL REFERENCES senses(id),
  target_sense_id INTEGER NOT NULL REFERENCES senses(id),
  kind            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_senses_source ON senses(source_id);
CREATE INDEX IF NOT EXISTS idx_sense_lemmas_sense ON sense_lemmas(sense_id);
CREATE INDEX IF NOT EXISTS idx_sense_lemmas_lemma ON sense_lemmas(lemma);
CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_sense_id);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_sense_id);
CREATE INDEX IF NOT EXISTS idx_relations_owner ON relations(source_id);
`

// DeleteSourcesData transactionally removes every sense the given sources
// defined, their lemma memberships, the relations they recorded, and all
// relations touching their senses. Source rows are kept so their hashes
// can be updated.
func (s *Store) DeleteSourcesData(sourceIDs []int64) error {
	if len(sourceIDs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := int64sToArgs(sourceIDs)
	owned := "SELECT id FROM senses WHERE source_id IN (" + placeholderList(len(sourceIDs)) + ")"
	for _, q := range []struct {
		sql  string
		args []any
	}{
		{"DELETE FROM relations WHERE source_id IN (" + placeholderList(len(sourceIDs)) + ") OR source_sense_id IN (" + owned + ") OR target_sense_id IN (" + owned + ")", repeatArgs(args, 3)},
		{"DELETE FROM sense_lemmas WHERE sense_id IN (" + owned + ")", args},
		{"DELETE FROM senses WHERE source_id IN (" + placeholderList(len(sourceIDs)) + ")", args},
	} {
		if _, err := tx.Exec(q.sql, q.args...); err != nil {
			return fmt.Errorf("delete source data: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteAll empties every table.
func (s *Store) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	for _, table := range []string{"relations", "sense_lemmas", "senses", "sources", "metadata"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Stats counts rows in the lexicon tables.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	for _, c := range []struct {
		table string
		dst   *int
	}{
		{"sources", &st.Sources},
		{"senses", &st.Senses},
		{"sense_lemmas", &st.Lemmas},
		{"relations", &st.Relations},
	} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return st, nil
}
