package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	projectDir string
	verbose    bool
	quietFlag  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ccflex",
	Short: "ccflex - labeled code-line and feature extraction",
	Long: `ccflex extracts individually labeled source-code lines from a code corpus
and computes per-line features for training line classifiers.

Typical pipeline:
  ccflex workspace init    # create results/processing/reports directories
  ccflex lines             # locations -> processing/lines.csv
  ccflex vocabulary --fit  # lines -> results/vocabulary.csv (+ vectorizer model)
  ccflex features          # lines -> processing/features.csv
  ccflex export            # tables -> results/dataset.db

Configuration is read from .ccflex/config.yml (or --config), with CCFLEX_*
environment overrides. A .env file in the project directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true, // Execute prints the error
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .ccflex/config.yml in the project directory)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")
}

// loadDotEnv loads .env from the project directory without overriding
// variables already set in the environment.
func loadDotEnv() {
	path := ".env"
	if projectDir != "" {
		path = projectDir + string(os.PathSeparator) + ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: failed to load .env:", err)
	}
}
