// Package store implements soundmanager's persistent relational store: the
// five tables of spec.md §4.1, opened through database/sql and the pure-Go
// modernc.org/sqlite driver (chosen because the retrieved reference pack
// has no sqlite driver of its own grounded in the teacher; see DESIGN.md).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fwojciec/clock"
	l "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

var log *l.Entry = l.WithFields(l.Fields{"component": "store"})

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS folders (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	parent  INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	name    TEXT NOT NULL,
	deleted DATETIME,
	UNIQUE(parent, name)
);

CREATE TABLE IF NOT EXISTS entries (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name TEXT NOT NULL,
	folder_id INTEGER NOT NULL REFERENCES folders(id) ON DELETE CASCADE,
	deleted   DATETIME,
	UNIQUE(folder_id, file_name)
);

CREATE TABLE IF NOT EXISTS tags (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL UNIQUE,
	parent   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	color    INTEGER NOT NULL DEFAULT 0,
	deleted  DATETIME
);

CREATE TABLE IF NOT EXISTS entry_tag (
	entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	tag_id   INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (entry_id, tag_id)
);
`

// RootID is the sentinel id of the folder and tag roots.
const RootID int32 = -1

// Store is the store guard: a *sql.DB behind a mutex, acquired exclusively
// by every store operation (spec.md §5).
type Store struct {
	mu        sync.Mutex
	db        *sql.DB
	clk       clock.Clock
	retention time.Duration
}

// Open opens an existing store file at dbPath. It returns *NotFoundError if
// the file does not exist.
func Open(dbPath string, retention time.Duration, clk clock.Clock) (*Store, error) {
	exists, err := fileExists(dbPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{Path: dbPath}
	}
	return open(dbPath, retention, clk)
}

// Create creates a new store file at dbPath and initializes its schema. It
// returns *AlreadyExistsError if the file already exists.
func Create(dbPath string, retention time.Duration, clk clock.Clock) (*Store, error) {
	exists, err := fileExists(dbPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &AlreadyExistsError{Path: dbPath}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s, err := open(dbPath, retention, clk)
	if err != nil {
		return nil, err
	}
	if err := s.migrate(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	if err := s.seed(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}
	return s, nil
}

func open(dbPath string, retention time.Duration, clk clock.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// the store guard serializes all access; one connection keeps that
	// true at the driver level too.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if clk == nil {
		clk = clock.New()
	}

	return &Store{db: db, clk: clk, retention: retention}, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// seed inserts the self-referencing sentinel rows for the folder and tag
// roots, plus the single metadata row.
func (s *Store) seed() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO folders (id, parent, name) VALUES (?, ?, '')`, RootID, RootID); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO tags (id, name, parent, position) VALUES (?, '', ?, 0)`, RootID, RootID); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO metadata (version) VALUES (?)`, schemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases the underlying store connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Version returns the schema version recorded in the metadata table.
func (s *Store) Version() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int
	err := s.db.QueryRow(`SELECT version FROM metadata LIMIT 1`).Scan(&version)
	return version, err
}

// WithTx runs fn inside a single store transaction, rolling back on any
// error it returns and on panic. Used by every operation that performs two
// or more row mutations comprising one logical change (spec.md §4.1).
func (s *Store) WithTx(fn func(tx *sql.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// exec runs a single statement under the store guard, outside of any
// explicit transaction (sqlite still wraps it in an implicit one).
func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Exec(query, args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Query(query, args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.QueryRow(query, args...)
}

// Prune removes folders, entries and tags that have been soft-deleted for
// longer than the configured retention (spec.md §4.1: 30 days).
func (s *Store) Prune() error {
	cutoff := s.clk.Now().Add(-s.retention)
	log.Tracef("pruning rows deleted before %s", cutoff)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"entry_tag", "entries", "folders", "tags"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE deleted IS NOT NULL AND deleted < ?`, table)
		if table == "entry_tag" {
			// entry_tag has no deleted column of its own; rows vanish via
			// cascade when their entry or tag is pruned.
			continue
		}
		if _, err := tx.Exec(q, cutoff); err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
