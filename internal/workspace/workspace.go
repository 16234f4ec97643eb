// Package workspace lays out the directories a ccflex run reads from and
// writes to.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Default subdirectory names.
const (
	ResultsDir    = "results"
	ProcessingDir = "processing"
	ReportsDir    = "reports"
)

// ErrExists indicates Create was called on an existing workspace.
var ErrExists = errors.New("workspace already exists")

// Workspace resolves file paths under a root directory. Line and feature
// tables go to Processing, vocabularies and exports to Results.
type Workspace struct {
	Root       string
	Results    string
	Processing string
	Reports    string

	logger *slog.Logger
}

// New returns a workspace rooted at root without touching the filesystem.
func New(root string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	root = filepath.Clean(root)
	return &Workspace{
		Root:       root,
		Results:    filepath.Join(root, ResultsDir),
		Processing: filepath.Join(root, ProcessingDir),
		Reports:    filepath.Join(root, ReportsDir),
		logger:     logger,
	}
}

// Exists reports whether the root directory exists.
func (w *Workspace) Exists() bool {
	info, err := os.Stat(w.Root)
	return err == nil && info.IsDir()
}

// Create makes the root and its subdirectories. It fails with ErrExists if
// the root is already present.
func (w *Workspace) Create() error {
	if _, err := os.Stat(w.Root); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, w.Root)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat workspace: %w", err)
	}
	return w.Ensure()
}

// Ensure makes any missing workspace directories.
func (w *Workspace) Ensure() error {
	for _, dir := range []string{w.Root, w.Results, w.Processing, w.Reports} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create workspace directory %s: %w", dir, err)
		}
		w.logger.Debug("workspace directory ready", "path", dir)
	}
	return nil
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	w.logger.Info("removed workspace", "path", w.Root)
	return nil
}

// Path returns name under the root.
func (w *Workspace) Path(name string) string { return filepath.Join(w.Root, name) }

// ResultsPath returns name under the results directory.
func (w *Workspace) ResultsPath(name string) string { return filepath.Join(w.Results, name) }

// ProcessingPath returns name under the processing directory.
func (w *Workspace) ProcessingPath(name string) string { return filepath.Join(w.Processing, name) }

// ReportsPath returns name under the reports directory.
func (w *Workspace) ReportsPath(name string) string { return filepath.Join(w.Reports, name) }
