package table

import (
	"bufio"
	"io"
	"strings"
)

// Writer writes rows in a Dialect. Call Flush before closing the destination.
type Writer struct {
	w       *bufio.Writer
	dialect Dialect
	quote   string
	escaped string
	rows    int
}

// NewWriter creates a buffered table writer.
func NewWriter(w io.Writer, dialect Dialect) *Writer {
	q := string(dialect.Quote)
	return &Writer{
		w:       bufio.NewWriterSize(w, 64*1024),
		dialect: dialect,
		quote:   q,
		escaped: q + q,
	}
}

// Write writes a single row. Text fields are always quoted.
func (w *Writer) Write(fields []Field) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := w.w.WriteRune(w.dialect.Separator); err != nil {
				return err
			}
		}
		if f.Numeric {
			if _, err := w.w.WriteString(f.Text); err != nil {
				return err
			}
			continue
		}
		if _, err := w.w.WriteString(w.quote); err != nil {
			return err
		}
		if _, err := w.w.WriteString(strings.ReplaceAll(f.Text, w.quote, w.escaped)); err != nil {
			return err
		}
		if _, err := w.w.WriteString(w.quote); err != nil {
			return err
		}
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.rows++
	return nil
}

// WriteHeader writes the column names as a text row.
func (w *Writer) WriteHeader(columns []string) error {
	return w.Write(Strings(columns...))
}

// Rows returns the number of rows written so far, header included.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
