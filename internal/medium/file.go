// ABOUTME: File-per-key implementation of the persistence Medium
// ABOUTME: Serves as the fallback when the primary SQLite medium is unavailable

package medium

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileMedium implements Medium with one file per key under a directory.
// Keys are query-escaped to produce safe file names (scoped keys contain
// "::" which is not portable across filesystems).
type FileMedium struct {
	dir    string
	logger *slog.Logger
}

// NewFileMedium creates a file medium rooted at dir, creating it if needed.
func NewFileMedium(dir string) (*FileMedium, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating fallback directory: %w", err)
	}
	return &FileMedium{
		dir:    dir,
		logger: slog.Default().With("component", "medium.file"),
	}, nil
}

// fileFor maps a key to its on-disk path.
func (m *FileMedium) fileFor(key string) string {
	return filepath.Join(m.dir, url.QueryEscape(key)+".json")
}

// Read returns the file contents for key, or ok=false if no file exists.
func (m *FileMedium) Read(key string) (string, bool, error) {
	data, err := os.ReadFile(m.fileFor(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return string(data), true, nil
}

// Write stores value in the file for key.
func (m *FileMedium) Write(key, value string) error {
	if err := os.WriteFile(m.fileFor(key), []byte(value), 0644); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key. Absent files are not an error.
func (m *FileMedium) Delete(key string) error {
	err := os.Remove(m.fileFor(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// WipeAll removes every key file in the directory.
func (m *FileMedium) WipeAll() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("reading fallback directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			m.logger.Warn("failed to remove key file", "file", entry.Name(), "error", err)
		}
	}
	return nil
}
