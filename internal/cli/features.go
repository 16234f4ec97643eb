package cli

import (
	"fmt"

	"github.com/mvp-joe/ccflex/internal/features"
	"github.com/spf13/cobra"
)

var (
	featuresInputFlag  string
	featuresOutputFlag string
)

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute per-line features from the line table",
	Long: `Features runs the configured feature extractors over every row of the line
table and writes the feature table: id, one column per feature, and
optionally class_name, class_value and contents.

Available extractor types: substring, whole_word, tokenized_whole_word,
regexp, comment, whole_line_comment, python_whole_line_comment, blank_line,
word_count, char_count, vectorizer.

Examples:
  # <workspace>/processing/lines.csv -> <workspace>/processing/features.csv
  ccflex features

  # Explicit tables
  ccflex features --input lines.csv --output features.csv
`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().StringVarP(&featuresInputFlag, "input", "i", "", "Line table path (default <workspace>/processing/<lines.output>)")
	featuresCmd.Flags().StringVarP(&featuresOutputFlag, "output", "o", "", "Output path (default <workspace>/processing/<features.output>)")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := s.workspace.Ensure(); err != nil {
		return err
	}

	input := featuresInputFlag
	if input == "" {
		input = s.workspace.ProcessingPath(s.cfg.Lines.Output)
	}
	output := featuresOutputFlag
	if output == "" {
		output = s.workspace.ProcessingPath(s.cfg.Features.Output)
	}

	specs, err := s.cfg.ExtractorSpecs()
	if err != nil {
		return err
	}
	extractors, err := features.Build(specs, s.cfg.BuildOptions(s.workspace.Results, s.logger))
	if err != nil {
		return err
	}
	defer features.CloseAll(extractors)

	progress := NewFeaturesProgressReporter(quietFlag, s.out)
	controller, err := features.NewController(extractors, s.cfg.ControllerOptions(), progress, s.logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	stats, err := controller.RunFiles(ctx, input, output, s.dialect)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("feature extraction cancelled")
		}
		return fmt.Errorf("feature extraction failed: %w", err)
	}

	s.printf("Feature table: %s (%s rows, %d columns)\n", output, formatNumber(stats.Rows), len(controller.Header()))
	return nil
}
