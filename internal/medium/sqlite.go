// ABOUTME: SQLite implementation of the persistence Medium using modernc.org/sqlite
// ABOUTME: Stores key/value slots in a single preferences table with WAL enabled

package medium

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteMedium implements Medium on top of a local SQLite database.
type SQLiteMedium struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteMedium opens (or creates) a SQLite database at the given path.
// Parent directories are created if needed.
func NewSQLiteMedium(path string) (*SQLiteMedium, error) {
	logger := slog.Default().With("component", "medium.sqlite")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	m := &SQLiteMedium{
		db:     db,
		logger: logger,
	}

	if err := m.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite medium initialized", "path", path)
	return m, nil
}

// createSchema creates the preferences table if it doesn't exist
func (m *SQLiteMedium) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	_, err := m.db.Exec(schema)
	return err
}

// Read returns the value stored under key, or ok=false if absent.
func (m *SQLiteMedium) Read(key string) (string, bool, error) {
	var value string
	err := m.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Write stores value under key, replacing any existing slot.
func (m *SQLiteMedium) Write(key, value string) error {
	_, err := m.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes the slot for key. Deleting an absent key is not an error.
func (m *SQLiteMedium) Delete(key string) error {
	if _, err := m.db.Exec("DELETE FROM preferences WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// WipeAll removes every slot in the medium.
func (m *SQLiteMedium) WipeAll() error {
	if _, err := m.db.Exec("DELETE FROM preferences"); err != nil {
		return fmt.Errorf("wiping preferences: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}
