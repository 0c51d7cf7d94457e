// Package db implements the query-and-serialization core of the viewer:
// a single shared read-only SQLite connection, cached per-table schema
// facts, safe SQL composition over validated identifiers, and the
// two-tier JSON encoding of cell values.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// StateSaver persists which database is currently open so a restart can
// restore it. Persistence is advisory; failures do not fail an open.
type StateSaver interface {
	Save(path string) error
	Clear() error
}

// Manager owns the process-wide database handle. All mutation of shared
// state passes through mu; readers hold it only long enough to snapshot
// the current handle and then work against that snapshot.
type Manager struct {
	mu     sync.Mutex
	handle *Handle
	state  StateSaver
}

// NewManager creates a Manager with no database open. state may be nil.
func NewManager(state StateSaver) *Manager {
	return &Manager{state: state}
}

// Open replaces the active database with the file at path. Closing the
// old connection, installing the new handle (which purges all caches)
// and persisting the new path happen in one critical section, so
// concurrent readers never observe a half-swapped handle.
func (m *Manager) Open(path string) error {
	expanded, err := expandHome(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.Mode().IsRegular() {
		return notFoundf("SQLite database not found: %s", abs)
	}

	conn, err := sql.Open("sqlite", "file:"+abs+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// The engine serializes statements internally; one connection is the
	// whole pool.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("open database %s: %w", abs, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		_ = m.handle.db.Close()
	}
	m.handle = newHandle(conn, abs)
	if m.state != nil {
		_ = m.state.Save(abs)
	}
	return nil
}

// Require returns the active handle, or ErrNoDatabase when nothing has
// been opened yet.
func (m *Manager) Require() (*Handle, error) {
	m.mu.Lock()
	h := m.handle
	m.mu.Unlock()
	if h == nil {
		return nil, ErrNoDatabase
	}
	return h, nil
}

// Path returns the absolute path of the active database, or "" when none
// is open.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return ""
	}
	return m.handle.path
}

// Close releases the active connection. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil
	}
	err := m.handle.db.Close()
	m.handle = nil
	return err
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
