package features

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mvp-joe/ccflex/internal/table"
)

const (
	// DefaultMaxLineLength bounds the text handed to the extractors.
	DefaultMaxLineLength = 1000

	// DefaultVerbosity is the progress log interval, in rows.
	DefaultVerbosity = 10_000
)

// ErrNoExtractors indicates a controller built without extractors.
var ErrNoExtractors = errors.New("no feature extractors configured")

// ControllerOptions configures a feature extraction run.
type ControllerOptions struct {
	// MaxLineLength truncates contents before extraction (DefaultMaxLineLength
	// if zero, no truncation if negative).
	MaxLineLength int

	// AddDecisionClass appends the class_name and class_value columns.
	AddDecisionClass bool

	// AddContents appends the untruncated contents column.
	AddContents bool

	// Verbosity logs progress every N rows (DefaultVerbosity if zero).
	Verbosity int
}

// Stats summarises one controller run.
type Stats struct {
	Rows     int
	Features int
	Duration time.Duration
}

// ProgressReporter receives feature extraction progress callbacks.
type ProgressReporter interface {
	OnRow(rows int)
	OnComplete(stats *Stats)
}

// NoOpProgressReporter ignores all progress callbacks.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnRow(rows int)          {}
func (NoOpProgressReporter) OnComplete(stats *Stats) {}

// Controller runs a list of extractors over a line table and writes one
// feature row per input row.
type Controller struct {
	extractors []Extractor
	names      []string // feature columns, duplicates kept
	opts       ControllerOptions
	progress   ProgressReporter
	logger     *slog.Logger
}

// NewController creates a controller. Feature names declared by more than
// one extractor are logged; the later extractor's value wins.
func NewController(extractors []Extractor, opts ControllerOptions, progress ProgressReporter, logger *slog.Logger) (*Controller, error) {
	if len(extractors) == 0 {
		return nil, ErrNoExtractors
	}
	if opts.MaxLineLength == 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	if opts.Verbosity <= 0 {
		opts.Verbosity = DefaultVerbosity
	}
	if progress == nil {
		progress = NoOpProgressReporter{}
	}
	logger = orDiscard(logger)

	var names []string
	owner := make(map[string]int)
	for i, e := range extractors {
		for _, name := range e.FeatureNames() {
			if prev, ok := owner[name]; ok && prev != i {
				logger.Warn("feature name collision, later extractor wins",
					"feature", name,
					"first", fmt.Sprintf("%T", extractors[prev]),
					"second", fmt.Sprintf("%T", e))
			}
			owner[name] = i
			names = append(names, name)
		}
	}

	return &Controller{
		extractors: extractors,
		names:      names,
		opts:       opts,
		progress:   progress,
		logger:     logger,
	}, nil
}

// Header returns the feature table columns.
func (c *Controller) Header() []string {
	header := make([]string, 0, len(c.names)+4)
	header = append(header, "id")
	header = append(header, c.names...)
	if c.opts.AddDecisionClass {
		header = append(header, "class_name", "class_value")
	}
	if c.opts.AddContents {
		header = append(header, "contents")
	}
	return header
}

// RunFiles reads the line table at inputPath and writes the feature table
// to outputPath.
func (c *Controller) RunFiles(ctx context.Context, inputPath, outputPath string, dialect table.Dialect) (*Stats, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open line table: %w", err)
	}
	defer in.Close()

	r, err := table.NewReader(in, dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to read line table %s: %w", inputPath, err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature table: %w", err)
	}
	w := table.NewWriter(out, dialect)
	stats, err := c.Run(ctx, r, w)
	if err != nil {
		out.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to flush feature table: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close feature table: %w", err)
	}
	return stats, nil
}

// Run streams rows from r to w in input order. The caller flushes w.
func (c *Controller) Run(ctx context.Context, r *table.Reader, w *table.Writer) (*Stats, error) {
	if err := c.checkColumns(r.Header()); err != nil {
		return nil, err
	}
	if err := w.WriteHeader(c.Header()); err != nil {
		return nil, fmt.Errorf("failed to write feature table header: %w", err)
	}

	start := time.Now()
	stats := &Stats{Features: len(c.names)}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line table row %d: %w", stats.Rows+1, err)
		}

		if err := w.Write(c.featureRow(row)); err != nil {
			return nil, fmt.Errorf("failed to write feature row: %w", err)
		}
		stats.Rows++
		c.progress.OnRow(stats.Rows)
		if stats.Rows%c.opts.Verbosity == 0 {
			c.logger.Info("extracting features", "rows", stats.Rows, "id", row.Get("id"))
		}
	}

	stats.Duration = time.Since(start)
	c.progress.OnComplete(stats)
	c.logger.Info("feature extraction complete", "rows", stats.Rows, "features", stats.Features, "duration", stats.Duration)
	return stats, nil
}

func (c *Controller) featureRow(row table.Row) []table.Field {
	contents := row.Get("contents")
	text := Truncate(contents, c.opts.MaxLineLength)

	merged := make(Vector, len(c.names))
	for _, e := range c.extractors {
		for name, value := range e.Extract(text) {
			merged[name] = value
		}
	}

	fields := make([]table.Field, 0, len(c.names)+4)
	fields = append(fields, table.String(row.Get("id")))
	for _, name := range c.names {
		fields = append(fields, table.Float(merged[name]))
	}
	if c.opts.AddDecisionClass {
		value, _ := row.Field("class_value")
		fields = append(fields, table.String(row.Get("class_name")), value)
	}
	if c.opts.AddContents {
		fields = append(fields, table.String(contents))
	}
	return fields
}

func (c *Controller) checkColumns(header []string) error {
	required := []string{"id", "contents"}
	if c.opts.AddDecisionClass {
		required = append(required, "class_name", "class_value")
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range required {
		if !present[col] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return nil
}
