package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Navigator tracks a working directory for the list, open and go back
// commands.
type Navigator struct {
	fs afero.Fs

	mu  sync.Mutex
	cwd string
}

// Entry is a directory listing entry.
type Entry struct {
	Name  string
	IsDir bool
}

// NewNavigator creates a Navigator rooted at dir. If dir does not exist the
// filesystem root is used.
func NewNavigator(fs afero.Fs, dir string) *Navigator {
	dir = filepath.Clean(dir)
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		dir = string(filepath.Separator)
	}
	return &Navigator{fs: fs, cwd: dir}
}

// Dir returns the current directory.
func (n *Navigator) Dir() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cwd
}

// List returns the visible entries of the current directory, directories first.
func (n *Navigator) List() ([]Entry, error) {
	dir := n.Dir()

	infos, err := afero.ReadDir(n.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		entries = append(entries, Entry{Name: info.Name(), IsDir: info.IsDir()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Resolve finds name in the current directory. Spoken names rarely match
// exactly, so an exact match is preferred, then a case-insensitive match,
// then a match ignoring the extension, then a unique prefix.
func (n *Navigator) Resolve(name string) (string, os.FileInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("no name given")
	}

	entries, err := n.List()
	if err != nil {
		return "", nil, err
	}

	want := strings.ToLower(name)
	var match string
	var prefixed []string

	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		switch {
		case e.Name == name:
			match = e.Name
		case match == "" && lower == want:
			match = e.Name
		case match == "" && strings.TrimSuffix(lower, filepath.Ext(lower)) == want:
			match = e.Name
		case strings.HasPrefix(lower, want):
			prefixed = append(prefixed, e.Name)
		}
		if e.Name == name {
			break
		}
	}

	if match == "" {
		if len(prefixed) != 1 {
			return "", nil, os.ErrNotExist
		}
		match = prefixed[0]
	}

	path := filepath.Join(n.Dir(), match)
	info, err := n.fs.Stat(path)
	if err != nil {
		return "", nil, err
	}
	return path, info, nil
}

// Enter changes into dir, which must exist.
func (n *Navigator) Enter(dir string) error {
	if ok, err := afero.DirExists(n.fs, dir); err != nil || !ok {
		return fmt.Errorf("not a directory: %s", dir)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cwd = filepath.Clean(dir)
	return nil
}

// Back moves to the parent directory and returns it. At the root it stays put.
func (n *Navigator) Back() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cwd = filepath.Dir(n.cwd)
	return n.cwd
}
