// Package store persists the daemon's status snapshot and watches files
// for changes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/jmylchreest/cybor/internal/model"
)

// ErrNoStatus is returned by Load when no status file has been written.
var ErrNoStatus = errors.New("no status file")

// StatusFile persists the daemon's latest status snapshot as JSON so that
// the CLI can report on a daemon it cannot reach over D-Bus.
type StatusFile struct {
	mu   sync.RWMutex
	fs   afero.Fs
	path string
}

// NewStatusFile creates a StatusFile at path on fs.
func NewStatusFile(fs afero.Fs, path string) *StatusFile {
	return &StatusFile{fs: fs, path: path}
}

// Path returns the file path.
func (f *StatusFile) Path() string {
	return f.path
}

// Save writes status atomically via a temp file and rename.
func (f *StatusFile) Save(status model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := f.fs.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}

// Load reads the last saved status.
func (f *StatusFile) Load() (*model.Status, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status model.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status file: %w", err)
	}
	return &status, nil
}

// Remove deletes the status file. A missing file is not an error.
func (f *StatusFile) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
