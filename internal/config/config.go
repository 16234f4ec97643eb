// Package config provides configuration loading for ccflex.
//
// Configuration is read from .ccflex/config.yml (or a file given with
// --config) with environment variable overrides.
//
// Priority (highest to lowest):
//  1. Environment variables (CCFLEX_*)
//  2. Config file
//  3. Built-in defaults
//
// Environment Variable Convention:
//   - Prefix: CCFLEX_
//   - Nested fields: use underscores (CCFLEX_LINES_DEDUPLICATE)
//
// Locations, decision classes and feature extractors are lists and can only
// be set from the config file.
package config

import "time"

// Config represents the complete ccflex configuration.
type Config struct {
	Workspace       string                `yaml:"workspace" mapstructure:"workspace"`       // workspace root directory
	BaselineDir     string                `yaml:"baseline_dir" mapstructure:"baseline_dir"` // line ids are relative to this
	LogLevel        string                `yaml:"log_level" mapstructure:"log_level"`       // debug, info, warn, error
	Locations       []LocationConfig      `yaml:"locations" mapstructure:"locations"`
	DecisionClasses DecisionClassesConfig `yaml:"decision_classes" mapstructure:"decision_classes"`
	Table           TableConfig           `yaml:"table" mapstructure:"table"`
	Lines           LinesConfig           `yaml:"lines" mapstructure:"lines"`
	Features        FeaturesConfig        `yaml:"features" mapstructure:"features"`
	Vocabulary      VocabularyConfig      `yaml:"vocabulary" mapstructure:"vocabulary"`
	Dataset         DatasetConfig         `yaml:"dataset" mapstructure:"dataset"`
}

// LocationConfig selects source files. Include and exclude are regular
// expressions matched from the start of file names; ignore holds globs of
// directories, relative to path, that are not descended into.
type LocationConfig struct {
	Path    string   `yaml:"path" mapstructure:"path"`
	Include []string `yaml:"include" mapstructure:"include"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`
}

// ClassConfig is a decision class.
type ClassConfig struct {
	Name  string  `yaml:"name" mapstructure:"name"`
	Value float64 `yaml:"value" mapstructure:"value"`
}

// LabeledClassConfig assigns a class to lines starting with LinePrefix.
type LabeledClassConfig struct {
	LinePrefix string  `yaml:"line_prefix" mapstructure:"line_prefix"`
	Name       string  `yaml:"name" mapstructure:"name"`
	Value      float64 `yaml:"value" mapstructure:"value"`
}

// DecisionClassesConfig is the labeling rule set, tested in order.
type DecisionClassesConfig struct {
	Labeled []LabeledClassConfig `yaml:"labeled" mapstructure:"labeled"`
	Default ClassConfig          `yaml:"default" mapstructure:"default"`
}

// TableConfig defines the delimited table dialect shared by all stages.
type TableConfig struct {
	Separator    string `yaml:"separator" mapstructure:"separator"`
	Quote        string `yaml:"quote" mapstructure:"quote"`
	MaxFieldSize int    `yaml:"max_field_size" mapstructure:"max_field_size"` // bytes
}

// LinesConfig configures line extraction.
type LinesConfig struct {
	Output           string        `yaml:"output" mapstructure:"output"` // file name under processing/
	Deduplicate      bool          `yaml:"deduplicate" mapstructure:"deduplicate"`
	Verbosity        int           `yaml:"verbosity" mapstructure:"verbosity"` // log every N files, 0 = every file
	Encoding         string        `yaml:"encoding" mapstructure:"encoding"`
	DropInvalidBytes bool          `yaml:"drop_invalid_bytes" mapstructure:"drop_invalid_bytes"`
	MaxDepth         int           `yaml:"max_depth" mapstructure:"max_depth"`
	WatchDebounce    time.Duration `yaml:"watch_debounce" mapstructure:"watch_debounce"`
}

// FeaturesConfig configures feature extraction. Each extractor is a map
// with a "type" key; the remaining keys are the extractor's parameters.
type FeaturesConfig struct {
	Output           string           `yaml:"output" mapstructure:"output"` // file name under processing/
	Extractors       []map[string]any `yaml:"extractors" mapstructure:"extractors"`
	MaxLineLength    int              `yaml:"max_line_length" mapstructure:"max_line_length"`
	AddDecisionClass bool             `yaml:"add_decision_class" mapstructure:"add_decision_class"`
	AddContents      bool             `yaml:"add_contents" mapstructure:"add_contents"`
	Verbosity        int              `yaml:"verbosity" mapstructure:"verbosity"` // log every N rows
	RegexTimeout     time.Duration    `yaml:"regex_timeout" mapstructure:"regex_timeout"`
}

// VocabularyConfig configures vocabulary statistics and vectorizer fitting.
type VocabularyConfig struct {
	Output    string `yaml:"output" mapstructure:"output"` // file name under results/
	Model     string `yaml:"model" mapstructure:"model"`   // file name under results/
	Lowercase bool   `yaml:"lowercase" mapstructure:"lowercase"`
	MinFiles  int    `yaml:"min_files" mapstructure:"min_files"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"` // 0 keeps all
}

// DatasetConfig configures the SQLite export.
type DatasetConfig struct {
	Output string `yaml:"output" mapstructure:"output"` // file name under results/
}

// Default returns a configuration with sensible defaults. Locations are
// empty and must be configured.
func Default() *Config {
	return &Config{
		Workspace:   "ccflex_workspace",
		BaselineDir: "/",
		LogLevel:    "info",
		DecisionClasses: DecisionClassesConfig{
			Default: ClassConfig{Name: "no_class", Value: 0},
		},
		Table: TableConfig{
			Separator:    ",",
			Quote:        `"`,
			MaxFieldSize: 64 << 20,
		},
		Lines: LinesConfig{
			Output:        "lines.csv",
			Deduplicate:   false,
			Verbosity:     100,
			Encoding:      "utf-8",
			MaxDepth:      64,
			WatchDebounce: 500 * time.Millisecond,
		},
		Features: FeaturesConfig{
			Output: "features.csv",
			Extractors: []map[string]any{
				{"type": "comment"},
				{"type": "whole_line_comment"},
				{"type": "blank_line"},
				{"type": "word_count"},
				{"type": "char_count"},
			},
			MaxLineLength:    1000,
			AddDecisionClass: true,
			AddContents:      false,
			Verbosity:        10000,
			RegexTimeout:     time.Second,
		},
		Vocabulary: VocabularyConfig{
			Output:   "vocabulary.csv",
			Model:    "vectorizer.yml",
			MinFiles: 1,
		},
		Dataset: DatasetConfig{
			Output: "dataset.db",
		},
	}
}
