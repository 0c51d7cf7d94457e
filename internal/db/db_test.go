package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestDB builds a throwaway database file, runs the given
// statements against it read-write, and returns its path.
func createTestDB(t *testing.T, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	seedDB(t, path, func(conn *sql.DB) {
		for _, stmt := range statements {
			_, err := conn.Exec(stmt)
			require.NoError(t, err)
		}
	})
	return path
}

// seedDB opens path read-write and hands the connection to fn, for
// fixtures that need bound parameters (blobs, floats).
func seedDB(t *testing.T, path string, fn func(conn *sql.DB)) {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	fn(conn)
}

// openTestHandle opens a fresh database through a Manager and returns
// the active handle.
func openTestHandle(t *testing.T, statements ...string) *Handle {
	t.Helper()
	return openHandleAt(t, createTestDB(t, statements...))
}

func openHandleAt(t *testing.T, path string) *Handle {
	t.Helper()
	m := NewManager(nil)
	require.NoError(t, m.Open(path))
	t.Cleanup(func() { _ = m.Close() })
	h, err := m.Require()
	require.NoError(t, err)
	return h
}
