package cli

import (
	"fmt"

	"github.com/mvp-joe/ccflex/internal/lines"
	"github.com/spf13/cobra"
)

var (
	linesWatchFlag  bool
	linesOutputFlag string
)

// linesCmd represents the lines command
var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Extract labeled source lines into the line table",
	Long: `Lines walks the configured locations, reads every selected file line by
line, assigns decision classes from line prefixes and writes the line table
(id, line, contents, class_name, class_value, path).

Examples:
  # Extract into <workspace>/processing/lines.csv
  ccflex lines

  # Keep the line table up to date while editing sources
  ccflex lines --watch
`,
	RunE: runLines,
}

func init() {
	rootCmd.AddCommand(linesCmd)
	linesCmd.Flags().BoolVarP(&linesWatchFlag, "watch", "w", false, "Re-extract whenever files under the locations change")
	linesCmd.Flags().StringVarP(&linesOutputFlag, "output", "o", "", "Output path (default <workspace>/processing/<lines.output>)")
}

func runLines(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := s.workspace.Ensure(); err != nil {
		return err
	}

	output := linesOutputFlag
	if output == "" {
		output = s.workspace.ProcessingPath(s.cfg.Lines.Output)
	}

	progress := NewLinesProgressReporter(quietFlag || linesWatchFlag, s.out)
	extractor, err := lines.NewExtractor(s.cfg.LineDecisionClasses(), s.cfg.LineOptions(), progress, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create line extractor: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if linesWatchFlag {
		s.printf("Watching %d locations, writing %s (Ctrl+C to stop)\n", len(s.cfg.Locations), output)
		return extractor.Watch(ctx, s.cfg.LineLocations(), output, s.dialect, lines.WatchOptions{
			Debounce: s.cfg.Lines.WatchDebounce,
			OnRun: func(stats *lines.Stats, err error) {
				if err == nil {
					s.printf("✓ %s lines from %s files\n", formatNumber(stats.Lines), formatNumber(stats.Files))
				}
			},
		})
	}

	stats, err := extractor.ExtractToFile(ctx, s.cfg.LineLocations(), output, s.dialect)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("line extraction cancelled")
		}
		return fmt.Errorf("line extraction failed: %w", err)
	}

	if quietFlag {
		return nil
	}
	s.printf("Line table: %s (%s rows)\n", output, formatNumber(stats.Lines))
	return nil
}
