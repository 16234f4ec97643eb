package dataset

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Store:
// - ImportLines stores every row, across insert batches
// - A second import replaces the previous lines
// - ImportFeatures stores one value per id and feature, skipping class/contents
// - Missing columns and non-numeric values are rejected
// - A file-backed database persists between opens

func openMemory(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableReader(t *testing.T, header []string, rows ...[]table.Field) *table.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := table.NewWriter(&buf, table.DefaultDialect())
	require.NoError(t, w.WriteHeader(header))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	require.NoError(t, w.Flush())

	r, err := table.NewReader(&buf, table.DefaultDialect())
	require.NoError(t, err)
	return r
}

func lineRows(n int, class string) [][]table.Field {
	rows := make([][]table.Field, n)
	for i := range rows {
		rows[i] = []table.Field{
			table.String("a.c:" + string(rune('a'+i%26))), table.Int(i + 1), table.String(`log("x");`),
			table.String(class), table.Float(1), table.String("/src/a.c"),
		}
	}
	return rows
}

func TestStore_ImportLines(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := context.Background()

	n, err := s.ImportLines(ctx, tableReader(t, lineColumns, lineRows(250, "log")...))
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	counts, err := s.ClassCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"log": 250}, counts)

	n, err = s.ImportLines(ctx, tableReader(t, lineColumns, lineRows(3, "no_log")...))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts, err = s.ClassCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"no_log": 3}, counts)
}

func TestStore_ImportLines_Errors(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := context.Background()

	_, err := s.ImportLines(ctx, tableReader(t, []string{"id", "contents"}))
	assert.ErrorIs(t, err, ErrMissingColumn)

	bad := []table.Field{
		table.String("a.c:1"), table.Int(1), table.String("x"),
		table.String("log"), table.String("high"), table.String("/a.c"),
	}
	_, err = s.ImportLines(ctx, tableReader(t, lineColumns, bad))
	assert.Error(t, err)
}

func TestStore_ImportFeatures(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ctx := context.Background()

	header := []string{"id", "comment", "no_chars", "class_name", "class_value", "contents"}
	r := tableReader(t, header,
		[]table.Field{table.String("a.c:1"), table.Int(1), table.Int(17), table.String("no_log"), table.Float(0), table.String("// TODO: fix this")},
		[]table.Field{table.String("a.c:2"), table.Int(0), table.Int(0), table.String("no_log"), table.Float(0), table.String("")},
	)

	n, err := s.ImportFeatures(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := s.FeatureValue(ctx, "a.c:1", "no_chars")
	require.NoError(t, err)
	assert.Equal(t, 17.0, v)

	_, err = s.FeatureValue(ctx, "a.c:1", "class_value")
	assert.Error(t, err)

	var stored int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM feature_values").Scan(&stored))
	assert.Equal(t, 4, stored)
}

func TestStore_ImportFeatures_NonNumeric(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	r := tableReader(t, []string{"id", "comment"}, []table.Field{table.String("a.c:1"), table.String("many")})

	_, err := s.ImportFeatures(context.Background(), r)
	assert.Error(t, err)
}

func TestStore_Persists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dataset.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.ImportLines(ctx, tableReader(t, lineColumns, lineRows(2, "log")...))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	counts, err := s.ClassCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["log"])
}
