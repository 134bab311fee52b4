package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Job directory naming
const (
	JobDirPrefix = "job-"
)

// ErrInvalidJobID is returned for ids that would escape the arena root
var ErrInvalidJobID = errors.New("invalid job id")

// Arena hands out one isolated working directory per job under a common root.
// Two jobs never share a directory, so purge and resolve cannot race.
type Arena struct {
	root string
}

// NewArena creates an arena rooted at root; the directory is created lazily
func NewArena(root string) *Arena {
	return &Arena{root: root}
}

// Root returns the arena root directory
func (a *Arena) Root() string {
	return a.root
}

// Allocate returns the working area for jobID without touching the filesystem
func (a *Arena) Allocate(jobID string) (*WorkArea, error) {
	if jobID == "" || strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}
	return &WorkArea{dir: filepath.Join(a.root, jobID)}, nil
}

// Sweep removes job directories left behind by a previous process. It must
// run before any job is dispatched.
func (a *Arena) Sweep() (int, error) {
	entries, err := os.ReadDir(a.root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read arena root: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), JobDirPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(a.root, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove stale job dir %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// WorkArea is the directory the extraction tool writes one job's output into.
// It assumes a single artifact: at resolution time the directory holds at
// most one relevant file.
type WorkArea struct {
	dir string
}

// Dir returns the directory path
func (w *WorkArea) Dir() string {
	return w.dir
}

// Prepare ensures the directory exists and is empty
func (w *WorkArea) Prepare() error {
	if err := CreateDirectoryIfNotExists(w.dir); err != nil {
		return err
	}
	return PurgeDirectory(w.dir)
}

// FindProducedFile returns the first regular file in the directory in
// enumeration order, skipping partial downloads.
func (w *WorkArea) FindProducedFile() (string, bool, error) {
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read work area: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || IsPartialFile(entry.Name()) {
			continue
		}
		return filepath.Join(w.dir, entry.Name()), true, nil
	}
	return "", false, nil
}

// Cleanup removes the directory with everything in it. Missing directories are fine.
func (w *WorkArea) Cleanup() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("failed to clean work area %s: %w", w.dir, err)
	}
	return nil
}
