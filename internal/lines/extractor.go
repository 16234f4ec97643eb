// Package lines turns a code corpus into a table of labeled, identity-tracked
// source lines.
package lines

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/zeebo/xxh3"
)

// Options configures a line extraction run.
type Options struct {
	// BaselineDir is the directory line ids are made relative to ("/" if empty).
	BaselineDir string

	// Deduplicate drops non-blank lines already seen earlier in the same file.
	Deduplicate bool

	// Verbosity logs progress every N files; 0 logs every file.
	Verbosity int

	// Encoding of the source files ("" means UTF-8).
	Encoding string

	// DropInvalidBytes removes invalid UTF-8 bytes instead of skipping the line.
	DropInvalidBytes bool

	// MaxDepth bounds directory recursion (0 selects DefaultMaxDepth).
	MaxDepth int
}

// Extractor reads resolved files line by line and writes the line table.
type Extractor struct {
	resolver *Resolver
	classes  DecisionClasses
	opts     Options
	baseline string
	progress ProgressReporter
	logger   *slog.Logger
}

// NewExtractor validates the decision classes and creates an extractor.
// A nil progress reporter or logger disables that output.
func NewExtractor(classes DecisionClasses, opts Options, progress ProgressReporter, logger *slog.Logger) (*Extractor, error) {
	if err := classes.Validate(); err != nil {
		return nil, err
	}
	if opts.Verbosity < 0 {
		return nil, fmt.Errorf("verbosity cannot be negative, got %d", opts.Verbosity)
	}

	baseline := opts.BaselineDir
	if baseline == "" {
		baseline = string(filepath.Separator)
	}
	baseline, err := filepath.Abs(baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve baseline directory: %w", err)
	}

	if progress == nil {
		progress = NoOpProgressReporter{}
	}
	logger = orDiscard(logger)

	return &Extractor{
		resolver: NewResolver(opts.MaxDepth, logger),
		classes:  classes,
		opts:     opts,
		baseline: baseline,
		progress: progress,
		logger:   logger,
	}, nil
}

// ExtractToFile runs Extract into a newly created table file at outputPath.
func (e *Extractor) ExtractToFile(ctx context.Context, locations []Location, outputPath string, dialect table.Dialect) (*Stats, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create line table: %w", err)
	}

	w := table.NewWriter(f, dialect)
	stats, err := e.Extract(ctx, locations, w)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to flush line table: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close line table: %w", err)
	}
	return stats, nil
}

// Extract resolves the locations and writes the header followed by one row
// per retained line. The caller flushes w.
func (e *Extractor) Extract(ctx context.Context, locations []Location, w *table.Writer) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	files, err := e.resolver.Resolve(locations)
	if err != nil {
		return nil, err
	}
	e.progress.OnResolveComplete(len(files))
	e.logger.Info("resolved locations", "locations", len(locations), "files", len(files))

	if err := w.WriteHeader(Header); err != nil {
		return nil, fmt.Errorf("failed to write line table header: %w", err)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.opts.Verbosity == 0 || i%e.opts.Verbosity == 0 {
			e.logger.Info("extracting file", "path", path, "file", i+1, "of", len(files))
		}

		rows, err := e.extractFile(path, w, stats)
		if err != nil {
			return nil, err
		}
		stats.Files++
		e.progress.OnFileExtracted(path, rows)
	}

	stats.Duration = time.Since(start)
	e.progress.OnComplete(stats)
	e.logger.Info("line extraction complete",
		"files", stats.Files,
		"lines", stats.Lines,
		"duplicates", stats.Duplicates,
		"decode_errors", stats.DecodeErrors,
		"duration", stats.Duration)
	return stats, nil
}

// extractFile writes the rows of one file and returns how many it wrote.
// Deduplication state lives only for the duration of this call.
func (e *Extractor) extractFile(path string, w *table.Writer, stats *Stats) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	lr, err := NewLineReader(f, e.opts.Encoding, e.opts.DropInvalidBytes)
	if err != nil {
		return 0, err
	}

	rel := e.relativePath(path)
	var seen map[uint64]struct{}
	if e.opts.Deduplicate {
		seen = make(map[uint64]struct{})
	}

	rows := 0
	for {
		line, err := lr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !line.OK {
			stats.DecodeErrors++
			e.logger.Debug("skipping undecodable line", "path", path, "line", line.Number)
			continue
		}

		contents, class := e.classes.Classify(line.Text)
		contents = strings.ReplaceAll(contents, "\x00", "")

		if seen != nil {
			if key := strings.TrimSpace(contents); key != "" {
				h := xxh3.HashString(key)
				if _, dup := seen[h]; dup {
					stats.Duplicates++
					continue
				}
				seen[h] = struct{}{}
			}
		}

		rec := Record{
			ID:       rel + ":" + strconv.Itoa(line.Number),
			Line:     line.Number,
			Contents: contents,
			Class:    class,
			Path:     path,
		}
		if err := w.Write(rec.Fields()); err != nil {
			return rows, fmt.Errorf("failed to write line table row: %w", err)
		}
		rows++
		stats.Lines++
	}
	return rows, nil
}

func (e *Extractor) relativePath(path string) string {
	rel, err := filepath.Rel(e.baseline, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
