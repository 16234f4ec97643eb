package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/ccflex/internal/dataset"
	"github.com/mvp-joe/ccflex/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the ccflex commands:
// - workspace init creates the directory layout, refuses to recreate it
//   without --force, and workspace clean removes it
// - lines -> vocabulary --fit -> features -> export runs end to end on a
//   project directory given with --dir, with the vectorizer extractor
//   using the model fitted into the workspace
// - export fails when there is nothing to export
// - version prints the binary name
// - the optional log_format key selects JSON or text logs tagged with a run id
// - formatNumber inserts thousands separators
//
// These tests share the package-level command tree and flag variables, so
// they are not parallel.

const projectConfig = `
workspace: ws
baseline_dir: src
locations:
  - path: src
    include: ['.*\.c$']
decision_classes:
  labeled:
    - line_prefix: "$$LOG$$"
      name: log
      value: 1
  default:
    name: no_log
    value: 0
features:
  extractors:
    - type: char_count
    - type: word_count
    - type: vectorizer
`

func resetFlags() {
	cfgFile = ""
	projectDir = "."
	verbose = false
	quietFlag = false
	workspaceForceFlag = false
	linesWatchFlag = false
	linesOutputFlag = ""
	featuresInputFlag = ""
	featuresOutputFlag = ""
	vocabularyFitFlag = false
	vocabularyInputFlag = ""
	exportOutputFlag = ""
}

func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".ccflex"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ccflex", "config.yml"), []byte(projectConfig), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.c"),
		[]byte("int x = 0;\n$$LOG$$printf(\"x=%d\", x);\n\nreturn x;\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "notes.txt"), []byte("skipped\n"), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestWorkspaceCommands(t *testing.T) {
	dir := newProject(t)
	ws := filepath.Join(dir, "ws")

	_, err := execute(t, "workspace", "init", "--dir", dir)
	require.NoError(t, err)
	for _, sub := range []string{"results", "processing", "reports"} {
		assert.DirExists(t, filepath.Join(ws, sub))
	}

	_, err = execute(t, "workspace", "init", "--dir", dir)
	assert.Error(t, err)

	_, err = execute(t, "workspace", "init", "--force", "--dir", dir)
	assert.NoError(t, err)

	_, err = execute(t, "workspace", "clean", "--dir", dir)
	require.NoError(t, err)
	assert.NoDirExists(t, ws)
}

func TestPipeline(t *testing.T) {
	dir := newProject(t)
	ws := filepath.Join(dir, "ws")

	_, err := execute(t, "lines", "-q", "--dir", dir)
	require.NoError(t, err)
	linesTable, err := os.ReadFile(filepath.Join(ws, "processing", "lines.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(linesTable), `"main.c:2"`)
	assert.NotContains(t, string(linesTable), "notes.txt")
	assert.NotContains(t, string(linesTable), "$$LOG$$")

	out, err := execute(t, "vocabulary", "--fit", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Vocabulary:")
	assert.FileExists(t, filepath.Join(ws, "results", "vocabulary.csv"))
	model, err := vocabulary.LoadModel(filepath.Join(ws, "results", "vectorizer.yml"))
	require.NoError(t, err)
	assert.Contains(t, model.Tokens, "x")

	_, err = execute(t, "features", "-q", "--dir", dir)
	require.NoError(t, err)
	featureTable, err := os.ReadFile(filepath.Join(ws, "processing", "features.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(featureTable), `"no_chars"`)
	assert.Contains(t, string(featureTable), `"no_words"`)
	assert.Contains(t, string(featureTable), `"x"`)

	out, err = execute(t, "export", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset:")

	store, err := dataset.Open(filepath.Join(ws, "results", "dataset.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	counts, err := store.ClassCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"log": 1, "no_log": 3}, counts)

	chars, err := store.FeatureValue(context.Background(), "main.c:1", "no_chars")
	require.NoError(t, err)
	assert.Equal(t, 10.0, chars)

	xs, err := store.FeatureValue(context.Background(), "main.c:1", "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, xs)
}

func TestExport_NothingToExport(t *testing.T) {
	dir := newProject(t)

	_, err := execute(t, "export", "-q", "--dir", dir)
	assert.ErrorContains(t, err, "nothing to export")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ccflex dev")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo, "json").Info("hello", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.NotEmpty(t, entry["run_id"])
	assert.Equal(t, 3.0, entry["rows"])

	buf.Reset()
	logger := newLogger(&buf, slog.LevelInfo, "text")
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "run_id=")
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}
