package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const indent = "  "

// Store writes endpoint snapshots as pretty-printed JSON files in one directory
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// EnsureDir creates the snapshot directory if it does not exist
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.dir, err)
	}
	return nil
}

// Path returns the location of the snapshot for fileName
func (s *Store) Path(fileName string) string {
	return filepath.Join(s.dir, fileName)
}

// WriteJSON re-indents raw and replaces fileName with it. Invalid JSON is
// rejected before anything touches the disk, so a prior snapshot survives.
func (s *Store) WriteJSON(fileName string, raw []byte) (string, int, error) {
	formatted, err := FormatJSON(raw)
	if err != nil {
		return "", 0, err
	}

	path := s.Path(fileName)
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, len(formatted), nil
}

// FormatJSON indents a JSON document with two spaces, keeping key order
func FormatJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(raw), "", indent); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return buf.Bytes(), nil
}
