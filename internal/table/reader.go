package table

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader reads rows of a table whose first row is the header.
type Reader struct {
	r       *bufio.Reader
	dialect Dialect
	header  []string
	index   map[string]int
	record  int
}

// Row is one data row addressed by column name.
type Row struct {
	fields []Field
	index  map[string]int
}

// NewReader creates a reader and consumes the header row.
func NewReader(r io.Reader, dialect Dialect) (*Reader, error) {
	if err := dialect.Validate(); err != nil {
		return nil, err
	}
	if dialect.MaxFieldSize <= 0 {
		dialect.MaxFieldSize = DefaultMaxFieldSize
	}
	tr := &Reader{
		r:       bufio.NewReaderSize(r, 64*1024),
		dialect: dialect,
	}

	fields, err := tr.readRecord()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("table has no header row: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	tr.header = make([]string, len(fields))
	tr.index = make(map[string]int, len(fields))
	for i, f := range fields {
		tr.header[i] = f.Text
		if _, dup := tr.index[f.Text]; !dup {
			tr.index[f.Text] = i
		}
	}
	return tr, nil
}

// Header returns the column names.
func (r *Reader) Header() []string {
	return r.header
}

// Read returns the next row, or io.EOF when the table is exhausted.
func (r *Reader) Read() (Row, error) {
	fields, err := r.readRecord()
	if err != nil {
		return Row{}, err
	}
	return Row{fields: fields, index: r.index}, nil
}

// Get returns the text of the named column, or "" if the row lacks it.
func (row Row) Get(column string) string {
	f, _ := row.Field(column)
	return f.Text
}

// Field returns the named column.
func (row Row) Field(column string) (Field, bool) {
	i, ok := row.index[column]
	if !ok || i >= len(row.fields) {
		return Field{}, false
	}
	return row.fields[i], true
}

// Fields returns the row in column order.
func (row Row) Fields() []Field {
	return row.fields
}

// readRecord parses one logical record. Quoted fields may contain separators,
// doubled quotes and newlines. Blank physical lines are skipped.
func (r *Reader) readRecord() ([]Field, error) {
	for {
		fields, blank, err := r.parseRecord()
		if err != nil {
			return nil, err
		}
		if !blank {
			r.record++
			return fields, nil
		}
	}
}

func (r *Reader) parseRecord() (fields []Field, blank bool, err error) {
	var (
		sb      strings.Builder
		quoted  bool
		inQuote bool
		started bool
		seen    bool

		// bytes of the field that were inside quotes
		quotedLen int
	)

	finish := func() {
		text := sb.String()
		f := Field{Text: text}
		if !quoted && text != "" {
			if _, perr := strconv.ParseFloat(text, 64); perr == nil {
				f.Numeric = true
			}
		}
		fields = append(fields, f)
		sb.Reset()
		quoted = false
		started = false
		quotedLen = 0
	}

	for {
		c, _, rerr := r.r.ReadRune()
		if rerr != nil {
			if rerr != io.EOF {
				return nil, false, rerr
			}
			if !seen {
				return nil, false, io.EOF
			}
			if inQuote {
				return nil, false, fmt.Errorf("record %d: unterminated quoted field: %w", r.record+1, io.ErrUnexpectedEOF)
			}
			finish()
			return fields, false, nil
		}
		seen = true

		if inQuote {
			if c == r.dialect.Quote {
				next, _, perr := r.r.ReadRune()
				if perr == nil && next == r.dialect.Quote {
					sb.WriteRune(c)
				} else {
					inQuote = false
					quotedLen = sb.Len()
					if perr == nil {
						if uerr := r.r.UnreadRune(); uerr != nil {
							return nil, false, uerr
						}
					}
				}
			} else {
				sb.WriteRune(c)
			}
			if sb.Len() > r.dialect.MaxFieldSize {
				return nil, false, fmt.Errorf("record %d: %w (%d bytes)", r.record+1, ErrFieldTooLarge, r.dialect.MaxFieldSize)
			}
			continue
		}

		switch {
		case c == r.dialect.Separator:
			finish()
		case c == '\n':
			text := sb.String()
			if !quoted || len(text) > quotedLen {
				text = strings.TrimSuffix(text, "\r")
				sb.Reset()
				sb.WriteString(text)
			}
			if len(fields) == 0 && !quoted && text == "" {
				return nil, true, nil
			}
			finish()
			return fields, false, nil
		case c == r.dialect.Quote && !started:
			quoted = true
			inQuote = true
			started = true
		default:
			started = true
			sb.WriteRune(c)
			if sb.Len() > r.dialect.MaxFieldSize {
				return nil, false, fmt.Errorf("record %d: %w (%d bytes)", r.record+1, ErrFieldTooLarge, r.dialect.MaxFieldSize)
			}
		}
	}
}
