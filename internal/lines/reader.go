package lines

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Line is one physical line read from a source file.
type Line struct {
	Number int
	Text   string
	// OK is false when the line could not be decoded. Text then holds a
	// best-effort rendering for diagnostics only.
	OK bool
}

// LineReader reads physical lines of arbitrary length and never fails on
// malformed bytes; decode problems are reported per line through Line.OK.
type LineReader struct {
	r           *bufio.Reader
	decoded     bool // r yields UTF-8 produced by an x/text decoder
	dropInvalid bool
	number      int
}

// NewLineReader creates a reader for the named encoding ("" means UTF-8).
// With dropInvalid, invalid UTF-8 bytes are removed instead of failing the line.
func NewLineReader(r io.Reader, encodingName string, dropInvalid bool) (*LineReader, error) {
	lr := &LineReader{dropInvalid: dropInvalid}
	if !isUTF8(encodingName) {
		enc, err := htmlindex.Get(encodingName)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", encodingName, err)
		}
		// Multi-byte encodings (UTF-16) must be decoded before splitting
		// on newlines.
		r = transform.NewReader(r, enc.NewDecoder())
		lr.decoded = true
	}
	lr.r = bufio.NewReaderSize(r, 64*1024)
	return lr, nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// Read returns the next line, or io.EOF after the last one. A final line
// without a terminating newline is still returned.
func (lr *LineReader) Read() (Line, error) {
	raw, err := lr.r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return Line{}, err
	}
	if len(raw) == 0 && err == io.EOF {
		return Line{}, io.EOF
	}
	lr.number++

	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))

	line := Line{Number: lr.number, OK: true}
	if lr.decoded || utf8.Valid(raw) {
		line.Text = string(raw)
		return line, nil
	}
	if lr.dropInvalid {
		line.Text = strings.ToValidUTF8(string(raw), "")
		return line, nil
	}
	line.OK = false
	line.Text = strings.ToValidUTF8(string(raw), "�")
	return line, nil
}
