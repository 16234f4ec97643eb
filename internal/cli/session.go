package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/mvp-joe/ccflex/internal/config"
	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/mvp-joe/ccflex/internal/workspace"
)

// session is the state shared by the pipeline commands of one invocation.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	workspace *workspace.Workspace
	dialect   table.Dialect
	out       io.Writer
}

// newSession loads the configuration, resolves project-relative paths and
// creates the run logger.
func newSession(out io.Writer) (*session, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(cfgFile)
	} else {
		loader = config.NewLoader(root)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Workspace = resolve(root, cfg.Workspace)
	cfg.BaselineDir = resolve(root, cfg.BaselineDir)
	for i := range cfg.Locations {
		cfg.Locations[i].Path = resolve(root, cfg.Locations[i].Path)
	}

	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	provider := loader.Provider()
	logger := newLogger(os.Stderr, level, provider.GetString("log_format", "text"))
	logger.Debug("configuration loaded", "config", provider.ConfigFileUsed(), "workspace", cfg.Workspace)

	return &session{
		cfg:       cfg,
		logger:    logger,
		workspace: workspace.New(cfg.Workspace, logger),
		dialect:   dialect,
		out:       out,
	}, nil
}

// newLogger creates the structured logger for one invocation, tagged with a
// run id so interleaved runs can be told apart. format is "text" or "json".
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("run_id", uuid.NewString())
}

// printf writes user-facing output unless --quiet is set.
func (s *session) printf(format string, args ...any) {
	if quietFlag {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
