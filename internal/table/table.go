// Package table reads and writes the delimited line and feature tables.
//
// The format is CSV-like but not RFC 4180: the field separator and the quote
// character are configurable runes, every non-numeric field is quoted (embedded
// quotes are doubled), and numeric fields are written bare so that they read
// back as numbers.
package table

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

const (
	// DefaultSeparator is the default field separator.
	DefaultSeparator = ','

	// DefaultQuote is the default quote character.
	DefaultQuote = '"'

	// DefaultMaxFieldSize bounds a single field when reading (64 MiB).
	DefaultMaxFieldSize = 64 << 20
)

var (
	// ErrFieldTooLarge indicates a field longer than Dialect.MaxFieldSize.
	ErrFieldTooLarge = errors.New("field exceeds maximum size")

	// ErrInvalidDialect indicates an unusable separator/quote combination.
	ErrInvalidDialect = errors.New("invalid table dialect")
)

// Dialect describes the separator, quoting and limits of a table.
type Dialect struct {
	Separator    rune
	Quote        rune
	MaxFieldSize int
}

// DefaultDialect returns the comma-separated, double-quoted dialect.
func DefaultDialect() Dialect {
	return Dialect{
		Separator:    DefaultSeparator,
		Quote:        DefaultQuote,
		MaxFieldSize: DefaultMaxFieldSize,
	}
}

// NewDialect builds a dialect from single-character strings, as they appear
// in configuration files.
func NewDialect(separator, quote string, maxFieldSize int) (Dialect, error) {
	d := DefaultDialect()
	if separator != "" {
		r, err := singleRune(separator)
		if err != nil {
			return d, fmt.Errorf("%w: separator: %v", ErrInvalidDialect, err)
		}
		d.Separator = r
	}
	if quote != "" {
		r, err := singleRune(quote)
		if err != nil {
			return d, fmt.Errorf("%w: quote: %v", ErrInvalidDialect, err)
		}
		d.Quote = r
	}
	if maxFieldSize > 0 {
		d.MaxFieldSize = maxFieldSize
	}
	return d, d.Validate()
}

// Validate checks that the dialect can round-trip its own output.
func (d Dialect) Validate() error {
	if d.Separator == d.Quote {
		return fmt.Errorf("%w: separator and quote must differ", ErrInvalidDialect)
	}
	for _, r := range []rune{d.Separator, d.Quote} {
		if r == '\n' || r == '\r' || r == utf8.RuneError {
			return fmt.Errorf("%w: %q cannot be used", ErrInvalidDialect, r)
		}
	}
	return nil
}

func singleRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Field is one cell of a table row.
type Field struct {
	Text    string
	Numeric bool
}

// String returns a quoted text field.
func String(s string) Field {
	return Field{Text: s}
}

// Int returns a bare numeric field.
func Int(n int) Field {
	return Field{Text: strconv.Itoa(n), Numeric: true}
}

// Float returns a bare numeric field using the shortest exact representation.
func Float(f float64) Field {
	return Field{Text: strconv.FormatFloat(f, 'f', -1, 64), Numeric: true}
}

// Strings wraps each value as a text field.
func Strings(values ...string) []Field {
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = String(v)
	}
	return fields
}
