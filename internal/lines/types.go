package lines

import (
	"errors"
	"time"

	"github.com/mvp-joe/ccflex/internal/table"
)

var (
	// ErrLocationNotFound indicates a configured location path that does not exist.
	ErrLocationNotFound = errors.New("location not found")

	// ErrEmptyDefaultClass indicates a decision class rule set without a default class.
	ErrEmptyDefaultClass = errors.New("default decision class has no name")

	// ErrEmptyLinePrefix indicates a labeled class whose prefix would match every line.
	ErrEmptyLinePrefix = errors.New("labeled decision class has an empty line prefix")
)

// Header is the column layout of the line table.
var Header = []string{"id", "line", "contents", "class_name", "class_value", "path"}

// Record is one extracted physical line.
type Record struct {
	ID       string // "<relative path>:<line number>"
	Line     int    // 1-based
	Contents string // label prefix, trailing newline and NULs removed
	Class    Class
	Path     string // absolute source path
}

// Fields returns the record as a line table row.
func (r Record) Fields() []table.Field {
	return []table.Field{
		table.String(r.ID),
		table.Int(r.Line),
		table.String(r.Contents),
		table.String(r.Class.Name),
		table.Float(r.Class.Value),
		table.String(r.Path),
	}
}

// Stats summarises one extraction run.
type Stats struct {
	Files        int
	Lines        int
	Duplicates   int
	DecodeErrors int
	Duration     time.Duration
}

// ProgressReporter receives extraction progress callbacks.
type ProgressReporter interface {
	// OnResolveComplete is called once the location rules are expanded.
	OnResolveComplete(files int)

	// OnFileExtracted is called after each file, with the rows it produced.
	OnFileExtracted(path string, rows int)

	// OnComplete is called when the run finishes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter ignores all progress callbacks.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnResolveComplete(files int)           {}
func (NoOpProgressReporter) OnFileExtracted(path string, rows int) {}
func (NoOpProgressReporter) OnComplete(stats *Stats)               {}
