package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project configuration directory.
const DirName = ".ccflex"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)

	// Provider exposes the raw settings of the last Load.
	Provider() *Provider
}

type loader struct {
	rootDir    string
	configFile string
	v          *viper.Viper
}

// NewLoader creates a loader that reads .ccflex/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file. The format
// follows the file extension (yaml, json, toml).
func NewFileLoader(path string) Loader {
	return &loader{configFile: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CCFLEX_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	v.SetEnvPrefix("CCFLEX")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CCFLEX_LINES_DEDUPLICATE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"workspace", "baseline_dir", "log_level",
		"table.separator", "table.quote", "table.max_field_size",
		"lines.output", "lines.deduplicate", "lines.verbosity", "lines.encoding",
		"lines.drop_invalid_bytes", "lines.max_depth", "lines.watch_debounce",
		"features.output", "features.max_line_length", "features.add_decision_class",
		"features.add_contents", "features.verbosity", "features.regex_timeout",
		"vocabulary.output", "vocabulary.model", "vocabulary.lowercase",
		"vocabulary.min_files", "vocabulary.max_tokens",
		"dataset.output",
	} {
		v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing project config is fine; an explicit --config must exist.
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	l.v = v
	return cfg, nil
}

func (l *loader) Provider() *Provider {
	return &Provider{v: l.v}
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("workspace", defaults.Workspace)
	v.SetDefault("baseline_dir", defaults.BaselineDir)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetDefault("decision_classes.default.name", defaults.DecisionClasses.Default.Name)
	v.SetDefault("decision_classes.default.value", defaults.DecisionClasses.Default.Value)

	v.SetDefault("table.separator", defaults.Table.Separator)
	v.SetDefault("table.quote", defaults.Table.Quote)
	v.SetDefault("table.max_field_size", defaults.Table.MaxFieldSize)

	v.SetDefault("lines.output", defaults.Lines.Output)
	v.SetDefault("lines.deduplicate", defaults.Lines.Deduplicate)
	v.SetDefault("lines.verbosity", defaults.Lines.Verbosity)
	v.SetDefault("lines.encoding", defaults.Lines.Encoding)
	v.SetDefault("lines.drop_invalid_bytes", defaults.Lines.DropInvalidBytes)
	v.SetDefault("lines.max_depth", defaults.Lines.MaxDepth)
	v.SetDefault("lines.watch_debounce", defaults.Lines.WatchDebounce)

	v.SetDefault("features.output", defaults.Features.Output)
	v.SetDefault("features.extractors", defaults.Features.Extractors)
	v.SetDefault("features.max_line_length", defaults.Features.MaxLineLength)
	v.SetDefault("features.add_decision_class", defaults.Features.AddDecisionClass)
	v.SetDefault("features.add_contents", defaults.Features.AddContents)
	v.SetDefault("features.verbosity", defaults.Features.Verbosity)
	v.SetDefault("features.regex_timeout", defaults.Features.RegexTimeout)

	v.SetDefault("vocabulary.output", defaults.Vocabulary.Output)
	v.SetDefault("vocabulary.model", defaults.Vocabulary.Model)
	v.SetDefault("vocabulary.lowercase", defaults.Vocabulary.Lowercase)
	v.SetDefault("vocabulary.min_files", defaults.Vocabulary.MinFiles)
	v.SetDefault("vocabulary.max_tokens", defaults.Vocabulary.MaxTokens)

	v.SetDefault("dataset.output", defaults.Dataset.Output)
}
