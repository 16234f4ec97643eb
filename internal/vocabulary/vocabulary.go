// Package vocabulary computes token statistics over a line table and fits
// the count-vectorizer models used for bag-of-words features.
package vocabulary

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/mvp-joe/ccflex/internal/tokenize"
)

// Header is the column layout of the vocabulary table.
var Header = []string{"token", "count", "count_files", "perc_files"}

// Entry is the usage of one token across the corpus.
type Entry struct {
	Token     string
	Count     int     // occurrences in all lines
	Files     int     // files containing the token
	FileShare float64 // Files / total files
}

// Options configures vocabulary extraction.
type Options struct {
	// Lowercase folds tokens to lower case before counting.
	Lowercase bool

	// Verbosity logs progress every N rows; 0 disables progress logs.
	Verbosity int
}

// Extractor aggregates token statistics from a line table.
type Extractor struct {
	opts      Options
	tokenizer tokenize.Tokenizer
	logger    *slog.Logger
}

// NewExtractor creates a vocabulary extractor using the code tokenizer.
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{opts: opts, tokenizer: tokenize.Tokenize, logger: logger}
}

// Tokens tokenizes one line the way the vocabulary was built.
func (e *Extractor) Tokens(text string) []string {
	if e.opts.Lowercase {
		text = strings.ToLower(text)
	}
	return e.tokenizer(text)
}

// Extract reads every row of a line table and returns the entries sorted by
// descending count, then by token.
func (e *Extractor) Extract(r *table.Reader) ([]Entry, error) {
	if !hasColumns(r.Header(), "contents", "path") {
		return nil, fmt.Errorf("line table must have contents and path columns, got %v", r.Header())
	}

	counts := make(map[string]int)
	fileTokens := make(map[string]map[string]struct{})

	rows := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line table: %w", err)
		}
		rows++
		if e.opts.Verbosity > 0 && rows%e.opts.Verbosity == 0 {
			e.logger.Info("counting tokens", "rows", rows, "id", row.Get("id"))
		}

		path := row.Get("path")
		seen, ok := fileTokens[path]
		if !ok {
			seen = make(map[string]struct{})
			fileTokens[path] = seen
		}
		for _, tok := range e.Tokens(row.Get("contents")) {
			counts[tok]++
			seen[tok] = struct{}{}
		}
	}

	inFiles := make(map[string]int, len(counts))
	for _, seen := range fileTokens {
		for tok := range seen {
			inFiles[tok]++
		}
	}

	entries := make([]Entry, 0, len(counts))
	for tok, n := range counts {
		entry := Entry{Token: tok, Count: n, Files: inFiles[tok]}
		if len(fileTokens) > 0 {
			entry.FileShare = float64(entry.Files) / float64(len(fileTokens))
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Token < entries[j].Token
	})

	e.logger.Info("vocabulary extracted", "rows", rows, "files", len(fileTokens), "tokens", len(entries))
	return entries, nil
}

// Write writes entries as a vocabulary table.
func Write(w *table.Writer, entries []Entry) error {
	if err := w.WriteHeader(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]table.Field{
			table.String(e.Token),
			table.Int(e.Count),
			table.Int(e.Files),
			table.Float(e.FileShare),
		}); err != nil {
			return err
		}
	}
	return nil
}

func hasColumns(header []string, columns ...string) bool {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, c := range columns {
		if !present[c] {
			return false
		}
	}
	return true
}
