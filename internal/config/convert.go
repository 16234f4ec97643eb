package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mvp-joe/ccflex/internal/features"
	"github.com/mvp-joe/ccflex/internal/lines"
	"github.com/mvp-joe/ccflex/internal/table"
	"github.com/mvp-joe/ccflex/internal/vocabulary"
)

// Dialect returns the table dialect.
func (c *Config) Dialect() (table.Dialect, error) {
	return table.NewDialect(c.Table.Separator, c.Table.Quote, c.Table.MaxFieldSize)
}

// LineLocations converts the configured locations.
func (c *Config) LineLocations() []lines.Location {
	out := make([]lines.Location, len(c.Locations))
	for i, loc := range c.Locations {
		out[i] = lines.Location{
			Path:    loc.Path,
			Include: loc.Include,
			Exclude: loc.Exclude,
			Ignore:  loc.Ignore,
		}
	}
	return out
}

// LineDecisionClasses converts the decision class rule set.
func (c *Config) LineDecisionClasses() lines.DecisionClasses {
	dc := lines.DecisionClasses{
		Default: lines.Class{Name: c.DecisionClasses.Default.Name, Value: c.DecisionClasses.Default.Value},
	}
	for _, l := range c.DecisionClasses.Labeled {
		dc.Labeled = append(dc.Labeled, lines.LabeledClass{
			LinePrefix: l.LinePrefix,
			Class:      lines.Class{Name: l.Name, Value: l.Value},
		})
	}
	return dc
}

// LineOptions converts the line extraction settings.
func (c *Config) LineOptions() lines.Options {
	return lines.Options{
		BaselineDir:      c.BaselineDir,
		Deduplicate:      c.Lines.Deduplicate,
		Verbosity:        c.Lines.Verbosity,
		Encoding:         c.Lines.Encoding,
		DropInvalidBytes: c.Lines.DropInvalidBytes,
		MaxDepth:         c.Lines.MaxDepth,
	}
}

// ExtractorSpecs splits each configured extractor into its type and params.
func (c *Config) ExtractorSpecs() ([]features.Spec, error) {
	specs := make([]features.Spec, 0, len(c.Features.Extractors))
	for i, e := range c.Features.Extractors {
		typ, _ := e["type"].(string)
		if typ == "" {
			return nil, fmt.Errorf("%w: extractor %d has no type", ErrInvalidExtractor, i)
		}
		params := make(map[string]any, len(e))
		for k, v := range e {
			if k != "type" {
				params[k] = v
			}
		}
		specs = append(specs, features.Spec{Type: typ, Params: params})
	}
	return specs, nil
}

// BuildOptions returns the settings shared by every extractor. modelDir is
// the directory vocabulary models are saved to; relative vectorizer models
// and the default vocabulary.model are looked up there.
func (c *Config) BuildOptions(modelDir string, logger *slog.Logger) features.BuildOptions {
	return features.BuildOptions{
		Separator:    c.Table.Separator,
		RegexTimeout: c.Features.RegexTimeout,
		ModelDir:     modelDir,
		DefaultModel: c.Vocabulary.Model,
		Logger:       logger,
	}
}

// ControllerOptions converts the feature controller settings.
func (c *Config) ControllerOptions() features.ControllerOptions {
	return features.ControllerOptions{
		MaxLineLength:    c.Features.MaxLineLength,
		AddDecisionClass: c.Features.AddDecisionClass,
		AddContents:      c.Features.AddContents,
		Verbosity:        c.Features.Verbosity,
	}
}

// VocabularyOptions converts the vocabulary extraction settings.
func (c *Config) VocabularyOptions() vocabulary.Options {
	return vocabulary.Options{Lowercase: c.Vocabulary.Lowercase, Verbosity: c.Features.Verbosity}
}

// FitOptions converts the vectorizer fitting settings.
func (c *Config) FitOptions() vocabulary.FitOptions {
	return vocabulary.FitOptions{
		MinFiles:  c.Vocabulary.MinFiles,
		MaxTokens: c.Vocabulary.MaxTokens,
		Lowercase: c.Vocabulary.Lowercase,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
