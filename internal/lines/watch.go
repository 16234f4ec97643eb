package lines

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/mvp-joe/ccflex/internal/watcher"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce is the quiet period before re-extracting (watcher.DefaultDebounce if zero).
	Debounce time.Duration

	// OnRun is called after every extraction, including the initial one.
	OnRun func(stats *Stats, err error)
}

// Watch extracts the locations into outputPath, then re-extracts whenever
// files under them change, until ctx is cancelled. Changes made while an
// extraction runs trigger one more run once it finishes. A failed
// re-extraction is reported through OnRun and does not stop watching.
func (e *Extractor) Watch(ctx context.Context, locations []Location, outputPath string, dialect table.Dialect, opts WatchOptions) error {
	onRun := opts.OnRun
	if onRun == nil {
		onRun = func(*Stats, error) {}
	}

	stats, err := e.ExtractToFile(ctx, locations, outputPath, dialect)
	onRun(stats, err)
	if err != nil {
		return err
	}

	output, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	paths := make([]string, len(locations))
	for i, loc := range locations {
		paths[i] = loc.Path
	}

	fw, err := watcher.NewFileWatcher(paths, watcher.Options{
		Debounce: opts.Debounce,
		Filter: func(path string) bool {
			abs, err := filepath.Abs(path)
			return err != nil || abs != output
		},
		Logger: e.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to watch locations: %w", err)
	}
	defer fw.Stop()

	err = fw.Start(ctx, func(files []string) {
		fw.Pause()
		defer fw.Resume()

		e.logger.Info("locations changed, re-extracting", "changed", len(files))
		stats, err := e.ExtractToFile(ctx, locations, outputPath, dialect)
		if err != nil && ctx.Err() == nil {
			e.logger.Error("re-extraction failed", "error", err)
		}
		onRun(stats, err)
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	return nil
}
