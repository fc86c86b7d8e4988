// Package store keeps a history of generated palettes in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store is a palette history backed by a SQLite database. It is safe for
// concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and applies pending
// migrations.
func Open(dbPath string) (*Store, error) {
	database, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(database); err != nil {
		database.Close()
		return nil, err
	}

	return &Store{db: database}, nil
}

func openDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	database.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}

	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", pragma, err)
		}
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return database, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
