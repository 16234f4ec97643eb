package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mvp-joe/ccflex/internal/dataset"
	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/spf13/cobra"
)

var exportOutputFlag string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Load the line and feature tables into a SQLite dataset",
	Long: `Export loads the line table into the "lines" table and the feature table
into "feature_values" (id, name, value) of a SQLite database, replacing any
previous import. Missing tables are skipped.

Examples:
  # Write <workspace>/results/dataset.db
  ccflex export

  # Query the class balance afterwards
  sqlite3 ccflex_workspace/results/dataset.db 'SELECT class_name, COUNT(*) FROM lines GROUP BY 1'
`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Database path (default <workspace>/results/<dataset.output>)")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := s.workspace.Ensure(); err != nil {
		return err
	}

	output := exportOutputFlag
	if output == "" {
		output = s.workspace.ResultsPath(s.cfg.Dataset.Output)
	}
	store, err := dataset.Open(output, s.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	imports := []struct {
		name   string
		path   string
		load   func(context.Context, *table.Reader) (int, error)
	}{
		{"lines", s.workspace.ProcessingPath(s.cfg.Lines.Output), store.ImportLines},
		{"features", s.workspace.ProcessingPath(s.cfg.Features.Output), store.ImportFeatures},
	}

	imported := 0
	for _, imp := range imports {
		n, err := importTable(ctx, imp.path, s.dialect, imp.load)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("table not found, skipping", "table", imp.name, "path", imp.path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", imp.name, err)
		}
		imported++
		s.printf("✓ Exported %s rows from %s\n", formatNumber(n), imp.path)
	}
	if imported == 0 {
		return fmt.Errorf("nothing to export: run 'ccflex lines' first")
	}

	s.printf("Dataset: %s\n", output)
	return nil
}

func importTable(ctx context.Context, path string, dialect table.Dialect, load func(context.Context, *table.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r, err := table.NewReader(f, dialect)
	if err != nil {
		return 0, err
	}
	return load(ctx, r)
}
