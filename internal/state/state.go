// Package state persists which database was last opened so a restart can
// restore it. The record is advisory: a missing or malformed file simply
// means no saved state.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const stateFileName = "active_db.json"

// Store reads and writes the active-database record under a data
// directory, creating the directory on first save.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is not created
// until something is saved.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

type record struct {
	Path string `json:"path"`
}

// Save writes the record as pretty-printed JSON.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(record{Path: path}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.file(), data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clear removes the record if present.
func (s *Store) Clear() error {
	if err := os.Remove(s.file()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

// Load returns the stored path, or "" when no usable record exists.
func (s *Store) Load() string {
	data, err := os.ReadFile(s.file())
	if err != nil {
		return ""
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return ""
	}
	return rec.Path
}

func (s *Store) file() string {
	return filepath.Join(s.dir, stateFileName)
}
