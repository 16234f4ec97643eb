package lines

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extractor:
// - Header written once, one row per physical line (blank lines included)
// - Ids are relative to the baseline directory, path column is absolute
// - Decision-class prefixes are stripped and classes assigned
// - NUL characters are removed from contents
// - Quotes in contents survive a write/read round trip
// - Dedup drops repeated non-blank lines within a file only
// - Dedup never drops blank lines
// - Undecodable lines are skipped and counted, the file continues
// - Two runs produce byte-identical output
// - Missing location aborts the run
// - Progress reporter sees every file
// - Cancelled context stops the run

func extractRows(t *testing.T, e *Extractor, locations []Location) ([]table.Row, *Stats, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := table.NewWriter(&buf, table.DefaultDialect())
	stats, err := e.Extract(context.Background(), locations, w)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	out := append([]byte(nil), buf.Bytes()...)

	r, err := table.NewReader(&buf, table.DefaultDialect())
	require.NoError(t, err)
	assert.Equal(t, Header, r.Header())

	var rows []table.Row
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows, stats, out
}

func TestExtractor_Rows(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/Main.java": "$$LOG$$log.info(\"start\");\n\nint x = 1;\nString s = \"a\x00b\";\n",
	})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)

	rows, stats, _ := extractRows(t, e, []Location{{Path: root, Include: []string{`.*\.java$`}}})
	require.Len(t, rows, 4)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 4, stats.Lines)

	path := filepath.Join(root, "src", "Main.java")

	first := rows[0]
	assert.Equal(t, "src/Main.java:1", first.Get("id"))
	assert.Equal(t, "1", first.Get("line"))
	assert.Equal(t, "log.info(\"start\");", first.Get("contents"))
	assert.Equal(t, "log", first.Get("class_name"))
	assert.Equal(t, "1", first.Get("class_value"))
	assert.Equal(t, path, first.Get("path"))

	lineField, ok := first.Field("line")
	require.True(t, ok)
	assert.True(t, lineField.Numeric)

	assert.Equal(t, "", rows[1].Get("contents"))
	assert.Equal(t, "no_log", rows[1].Get("class_name"))
	assert.Equal(t, "int x = 1;", rows[2].Get("contents"))
	assert.Equal(t, "String s = \"ab\";", rows[3].Get("contents"))
	assert.Equal(t, "src/Main.java:4", rows[3].Get("id"))
}

func TestExtractor_DeduplicationScope(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.c": "x++;\n\n  x++;  \n\ny--;\n",
		"b.c": "x++;\n",
	})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root, Deduplicate: true}, nil, nil)
	require.NoError(t, err)

	rows, stats, _ := extractRows(t, e, []Location{{Path: root, Include: []string{`.*\.c$`}}})

	var ids []string
	for _, row := range rows {
		ids = append(ids, row.Get("id"))
	}
	// a.c:3 repeats a.c:1 after trimming; blank lines 2 and 4 both stay.
	assert.Equal(t, []string{"a.c:1", "a.c:2", "a.c:4", "a.c:5", "b.c:1"}, ids)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestExtractor_WithoutDedupKeepsEveryLine(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.c": "x;\nx;\n\n\nx;"})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)

	rows, _, _ := extractRows(t, e, []Location{{Path: filepath.Join(root, "a.c")}})
	assert.Len(t, rows, 5)
}

func TestExtractor_SkipsUndecodableLines(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.c": "one\ntw\xffo\nthree\n"})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)

	rows, stats, _ := extractRows(t, e, []Location{{Path: root, Include: []string{`a`}}})
	require.Len(t, rows, 2)
	assert.Equal(t, "a.c:1", rows[0].Get("id"))
	assert.Equal(t, "a.c:3", rows[1].Get("id"))
	assert.Equal(t, 1, stats.DecodeErrors)
}

func TestExtractor_Idempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":     "# c\nprint('x')\n",
		"pkg/b.py": "$$LOG$$logging.info(\"y\")\n",
		"pkg/c.py": "",
	})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)
	locs := []Location{{Path: root, Include: []string{`.*\.py$`}}}

	_, _, first := extractRows(t, e, locs)
	_, _, second := extractRows(t, e, locs)
	assert.Equal(t, first, second)
}

func TestExtractor_MissingLocation(t *testing.T) {
	t.Parallel()

	e, err := NewExtractor(testClasses(), Options{}, nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = e.Extract(context.Background(), []Location{{Path: filepath.Join(t.TempDir(), "gone")}}, table.NewWriter(&buf, table.DefaultDialect()))
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestNewExtractor_RejectsInvalidClasses(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(DecisionClasses{}, Options{}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyDefaultClass)

	_, err = NewExtractor(testClasses(), Options{Verbosity: -1}, nil, nil)
	assert.Error(t, err)
}

type recordingProgress struct {
	resolved int
	files    []string
	rows     int
	done     bool
}

func (p *recordingProgress) OnResolveComplete(files int) { p.resolved = files }
func (p *recordingProgress) OnFileExtracted(path string, rows int) {
	p.files = append(p.files, filepath.Base(path))
	p.rows += rows
}
func (p *recordingProgress) OnComplete(stats *Stats) { p.done = true }

func TestExtractor_Progress(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.c": "1\n2\n", "b.c": "3\n"})

	progress := &recordingProgress{}
	e, err := NewExtractor(testClasses(), Options{BaselineDir: root, Verbosity: 10}, progress, nil)
	require.NoError(t, err)

	extractRows(t, e, []Location{{Path: root, Include: []string{`.*`}}})
	assert.Equal(t, 2, progress.resolved)
	assert.Equal(t, []string{"a.c", "b.c"}, progress.files)
	assert.Equal(t, 3, progress.rows)
	assert.True(t, progress.done)
}

func TestExtractor_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.c": "x\n"})

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err = e.Extract(ctx, []Location{{Path: root, Include: []string{`.*`}}}, table.NewWriter(&buf, table.DefaultDialect()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_ExtractToFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"in/a.c": "x\ny\n"})
	out := filepath.Join(root, "lines.csv")

	d, err := table.NewDialect("$", "", 0)
	require.NoError(t, err)

	e, err := NewExtractor(testClasses(), Options{BaselineDir: root}, nil, nil)
	require.NoError(t, err)
	stats, err := e.ExtractToFile(context.Background(), []Location{{Path: filepath.Join(root, "in"), Include: []string{`.*`}}}, out, d)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Lines)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"id\"$\"line\"$\"contents\"")
	assert.Contains(t, string(data), "\"in/a.c:2\"$2$\"y\"")
}
