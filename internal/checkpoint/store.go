// Package checkpoint persists extraction progress as an atomically replaced
// JSON file.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/internal/extractor"
)

// Store reads and writes the canonical progress file. Save goes through a
// temp file and rename so a crash mid-write never leaves a reader with a
// partial checkpoint.
type Store struct {
	path string
}

// NewStore returns a store rooted at path. Parent directories are created on
// the first Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save serializes the checkpoint and atomically replaces the progress file.
func (s *Store) Save(cp extractor.Checkpoint) error {
	payload, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create checkpoint dir %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Load reads the progress file. found is false when no checkpoint exists
// yet; a malformed file is an error so a run never silently restarts from
// zero over good data.
func (s *Store) Load() (extractor.Checkpoint, bool, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return extractor.Checkpoint{}, false, nil
		}
		return extractor.Checkpoint{}, false, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	var cp extractor.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return extractor.Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", s.path, err)
	}
	return cp, true, nil
}
