package lines

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, lr *LineReader) []Line {
	t.Helper()
	var out []Line
	for {
		line, err := lr.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, line)
	}
}

func TestLineReader_PhysicalLines(t *testing.T) {
	t.Parallel()

	lr, err := NewLineReader(strings.NewReader("a\n\nb\r\nlast"), "", false)
	require.NoError(t, err)

	got := readAll(t, lr)
	require.Len(t, got, 4)
	assert.Equal(t, Line{Number: 1, Text: "a", OK: true}, got[0])
	assert.Equal(t, Line{Number: 2, Text: "", OK: true}, got[1])
	assert.Equal(t, Line{Number: 3, Text: "b", OK: true}, got[2])
	assert.Equal(t, Line{Number: 4, Text: "last", OK: true}, got[3])
}

func TestLineReader_TrailingNewlineAddsNoLine(t *testing.T) {
	t.Parallel()

	lr, err := NewLineReader(strings.NewReader("a\nb\n"), "utf-8", false)
	require.NoError(t, err)
	assert.Len(t, readAll(t, lr), 2)

	lr, err = NewLineReader(strings.NewReader(""), "utf-8", false)
	require.NoError(t, err)
	assert.Empty(t, readAll(t, lr))
}

func TestLineReader_InvalidUTF8(t *testing.T) {
	t.Parallel()

	input := "ok\nbad \xff\xfe here\nfine\n"

	// Test: invalid lines are reported, not fatal
	lr, err := NewLineReader(strings.NewReader(input), "", false)
	require.NoError(t, err)
	got := readAll(t, lr)
	require.Len(t, got, 3)
	assert.True(t, got[0].OK)
	assert.False(t, got[1].OK)
	assert.Equal(t, 2, got[1].Number)
	assert.True(t, got[2].OK)
	assert.Equal(t, 3, got[2].Number)

	// Test: dropping invalid bytes keeps the line
	lr, err = NewLineReader(strings.NewReader(input), "", true)
	require.NoError(t, err)
	got = readAll(t, lr)
	require.Len(t, got, 3)
	assert.True(t, got[1].OK)
	assert.Equal(t, "bad  here", got[1].Text)
}

func TestLineReader_Latin1(t *testing.T) {
	t.Parallel()

	lr, err := NewLineReader(strings.NewReader("caf\xe9\n"), "iso-8859-1", false)
	require.NoError(t, err)
	got := readAll(t, lr)
	require.Len(t, got, 1)
	assert.True(t, got[0].OK)
	assert.Equal(t, "café", got[0].Text)
}

func TestLineReader_UTF16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		encoding string
		input    string
	}{
		{"little endian", "utf-16le", "a\x00\n\x00b\x00\n\x00"},
		{"big endian with CRLF", "utf-16be", "\x00a\x00\r\x00\n\x00b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lr, err := NewLineReader(strings.NewReader(tt.input), tt.encoding, false)
			require.NoError(t, err)
			got := readAll(t, lr)
			require.Len(t, got, 2)
			assert.Equal(t, Line{Number: 1, Text: "a", OK: true}, got[0])
			assert.Equal(t, Line{Number: 2, Text: "b", OK: true}, got[1])
		})
	}
}

func TestLineReader_UnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := NewLineReader(strings.NewReader(""), "klingon-8", false)
	assert.Error(t, err)
}

func TestLineReader_VeryLongLine(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 1<<20)
	lr, err := NewLineReader(strings.NewReader(long+"\nshort\n"), "", false)
	require.NoError(t, err)
	got := readAll(t, lr)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Text, 1<<20)
	assert.Equal(t, "short", got[1].Text)
}
