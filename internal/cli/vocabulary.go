package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/mvp-joe/ccflex/internal/vocabulary"
	"github.com/spf13/cobra"
)

var (
	vocabularyFitFlag   bool
	vocabularyInputFlag string
)

// vocabularyCmd represents the vocabulary command
var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary",
	Short: "Count token usage across the line table",
	Long: `Vocabulary tokenizes the contents of every line in the line table and writes
token,count,count_files,perc_files to <workspace>/results/<vocabulary.output>,
most frequent first.

With --fit, the tokens found in at least vocabulary.min_files files (at most
vocabulary.max_tokens of them) are saved as a vectorizer model for the
"vectorizer" feature extractor.

Examples:
  ccflex vocabulary
  ccflex vocabulary --fit
`,
	RunE: runVocabulary,
}

func init() {
	rootCmd.AddCommand(vocabularyCmd)
	vocabularyCmd.Flags().BoolVar(&vocabularyFitFlag, "fit", false, "Also fit and save the vectorizer model")
	vocabularyCmd.Flags().StringVarP(&vocabularyInputFlag, "input", "i", "", "Line table path (default <workspace>/processing/<lines.output>)")
}

func runVocabulary(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := s.workspace.Ensure(); err != nil {
		return err
	}

	input := vocabularyInputFlag
	if input == "" {
		input = s.workspace.ProcessingPath(s.cfg.Lines.Output)
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open line table: %w", err)
	}
	defer in.Close()

	r, err := table.NewReader(in, s.dialect)
	if err != nil {
		return fmt.Errorf("failed to read line table %s: %w", input, err)
	}
	entries, err := vocabulary.NewExtractor(s.cfg.VocabularyOptions(), s.logger).Extract(r)
	if err != nil {
		return err
	}

	output := s.workspace.ResultsPath(s.cfg.Vocabulary.Output)
	if err := writeVocabulary(output, entries, s.dialect); err != nil {
		return err
	}
	s.printf("Vocabulary: %s (%s tokens)\n", output, formatNumber(len(entries)))

	if !vocabularyFitFlag {
		return nil
	}
	model := vocabulary.Fit(entries, s.cfg.FitOptions())
	modelPath := s.workspace.ResultsPath(s.cfg.Vocabulary.Model)
	if err := model.Save(modelPath); err != nil {
		return err
	}
	s.printf("Vectorizer model: %s (%s tokens)\n", modelPath, formatNumber(len(model.Tokens)))
	return nil
}

func writeVocabulary(path string, entries []vocabulary.Entry, dialect table.Dialect) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vocabulary table: %w", err)
	}
	w := table.NewWriter(f, dialect)
	if err := vocabulary.Write(w, entries); err != nil {
		f.Close()
		return fmt.Errorf("failed to write vocabulary table: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush vocabulary table: %w", err)
	}
	return f.Close()
}
