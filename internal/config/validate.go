package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mvp-joe/ccflex/internal/features"
	"github.com/mvp-joe/ccflex/internal/table"
)

var (
	// ErrNoLocations indicates a configuration without any location.
	ErrNoLocations = errors.New("no locations configured")

	// ErrInvalidLocation indicates a location without a path.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrEmptyDefaultClass indicates a missing default decision class.
	ErrEmptyDefaultClass = errors.New("empty default decision class")

	// ErrInvalidDecisionClass indicates an unusable labeled decision class.
	ErrInvalidDecisionClass = errors.New("invalid decision class")

	// ErrInvalidTable indicates an unusable table dialect.
	ErrInvalidTable = errors.New("invalid table settings")

	// ErrInvalidVerbosity indicates a negative progress interval.
	ErrInvalidVerbosity = errors.New("invalid verbosity")

	// ErrInvalidExtractor indicates a feature extractor entry without a known type.
	ErrInvalidExtractor = errors.New("invalid feature extractor")

	// ErrInvalidVocabulary indicates invalid vectorizer fitting settings.
	ErrInvalidVocabulary = errors.New("invalid vocabulary settings")

	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrEmptyOutput indicates a missing output file name.
	ErrEmptyOutput = errors.New("empty output file name")
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if !slices.Contains(logLevels, strings.ToLower(cfg.LogLevel)) {
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got '%s'", ErrInvalidLogLevel, strings.Join(logLevels, ", "), cfg.LogLevel))
	}
	if strings.TrimSpace(cfg.Workspace) == "" {
		errs = append(errs, fmt.Errorf("%w: workspace directory is required", ErrEmptyOutput))
	}

	if err := validateLocations(cfg.Locations); err != nil {
		errs = append(errs, err)
	}
	if err := validateDecisionClasses(&cfg.DecisionClasses); err != nil {
		errs = append(errs, err)
	}
	if _, err := table.NewDialect(cfg.Table.Separator, cfg.Table.Quote, cfg.Table.MaxFieldSize); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidTable, err))
	}
	if cfg.Table.MaxFieldSize < 0 {
		errs = append(errs, fmt.Errorf("%w: max_field_size cannot be negative, got %d", ErrInvalidTable, cfg.Table.MaxFieldSize))
	}
	if err := validateLines(&cfg.Lines); err != nil {
		errs = append(errs, err)
	}
	if err := validateFeatures(&cfg.Features); err != nil {
		errs = append(errs, err)
	}
	if err := validateVocabulary(&cfg.Vocabulary); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Dataset.Output) == "" {
		errs = append(errs, fmt.Errorf("%w: dataset.output", ErrEmptyOutput))
	}

	return joinErrors(errs)
}

func validateLocations(locations []LocationConfig) error {
	if len(locations) == 0 {
		return fmt.Errorf("%w: at least one location is required", ErrNoLocations)
	}

	var errs []error
	for i, loc := range locations {
		if strings.TrimSpace(loc.Path) == "" {
			errs = append(errs, fmt.Errorf("%w: location %d has no path", ErrInvalidLocation, i))
		}
	}
	return joinErrors(errs)
}

func validateDecisionClasses(cfg *DecisionClassesConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Default.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: default class needs a name", ErrEmptyDefaultClass))
	}
	for i, c := range cfg.Labeled {
		if c.LinePrefix == "" {
			errs = append(errs, fmt.Errorf("%w: labeled class %d has no line_prefix", ErrInvalidDecisionClass, i))
		}
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: labeled class %d has no name", ErrInvalidDecisionClass, i))
		}
	}
	return joinErrors(errs)
}

func validateLines(cfg *LinesConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Output) == "" {
		errs = append(errs, fmt.Errorf("%w: lines.output", ErrEmptyOutput))
	}
	if cfg.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("%w: lines.verbosity cannot be negative, got %d", ErrInvalidVerbosity, cfg.Verbosity))
	}
	if cfg.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("%w: lines.max_depth cannot be negative, got %d", ErrInvalidLocation, cfg.MaxDepth))
	}
	return joinErrors(errs)
}

func validateFeatures(cfg *FeaturesConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Output) == "" {
		errs = append(errs, fmt.Errorf("%w: features.output", ErrEmptyOutput))
	}
	if cfg.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("%w: features.verbosity cannot be negative, got %d", ErrInvalidVerbosity, cfg.Verbosity))
	}
	if len(cfg.Extractors) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one extractor is required", ErrInvalidExtractor))
	}

	known := features.Types()
	for i, e := range cfg.Extractors {
		typ, _ := e["type"].(string)
		if typ == "" {
			errs = append(errs, fmt.Errorf("%w: extractor %d has no type", ErrInvalidExtractor, i))
			continue
		}
		if !slices.Contains(known, typ) {
			errs = append(errs, fmt.Errorf("%w: unknown type %q (valid: %s)", ErrInvalidExtractor, typ, strings.Join(known, ", ")))
		}
	}
	return joinErrors(errs)
}

func validateVocabulary(cfg *VocabularyConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Output) == "" || strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: vocabulary.output and vocabulary.model are required", ErrEmptyOutput))
	}
	if cfg.MinFiles < 0 {
		errs = append(errs, fmt.Errorf("%w: min_files cannot be negative, got %d", ErrInvalidVocabulary, cfg.MinFiles))
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("%w: max_tokens cannot be negative, got %d", ErrInvalidVocabulary, cfg.MaxTokens))
	}
	return joinErrors(errs)
}

// joinErrors combines multiple errors into a single error with clear
// formatting. Every error stays matchable with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	args := make([]any, len(errs))
	for i, err := range errs {
		args[i] = err
	}
	return fmt.Errorf("validation failed:"+strings.Repeat("\n  - %w", len(errs)), args...)
}
