// pkg/state/sqlite.go
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arc-language/nouzen/pkg/core"
)

const createTable = `CREATE TABLE IF NOT EXISTS installed (
	name TEXT PRIMARY KEY,
	version TEXT NOT NULL,
	auto_install INTEGER NOT NULL DEFAULT 0,
	entries TEXT NOT NULL DEFAULT ''
)`

// SQLiteStore keeps install metadata in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and ensures the schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(createTable); err != nil {
		return nil, fmt.Errorf("creating installed table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Lookup(name string) (*Record, error) {
	var (
		rec     = &Record{Name: name}
		auto    int
		entries string
	)
	err := s.db.QueryRow(
		"SELECT version, auto_install, entries FROM installed WHERE name = ?", name,
	).Scan(&rec.Version, &auto, &entries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotInstalled
	}
	if err != nil {
		return nil, fmt.Errorf("querying metadata for %s: %w", name, err)
	}
	if rec.Version == "" {
		return nil, &core.Error{Op: "load metadata", Package: name, Err: fmt.Errorf("%w: Version", core.ErrMissingField)}
	}

	rec.AutoInstall = auto != 0
	rec.Entries = splitEntries(entries)
	return rec, nil
}

func (s *SQLiteStore) Save(rec *Record) error {
	auto := 0
	if rec.AutoInstall {
		auto = 1
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO installed (name, version, auto_install, entries) VALUES (?, ?, ?, ?)",
		rec.Name, rec.Version, auto, strings.Join(rec.Entries, ","),
	)
	if err != nil {
		return fmt.Errorf("saving metadata for %s: %w", rec.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM installed WHERE name = ?", name); err != nil {
		return fmt.Errorf("deleting metadata for %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM installed ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning installed package: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
