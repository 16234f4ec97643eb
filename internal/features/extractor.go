// Package features turns line text into fixed-width numeric feature vectors.
//
// Each Extractor is an independent strategy with a fixed, ordered list of
// feature names. Extract is total: it never fails and always returns a value
// for every declared name, including for the empty string. The Controller
// runs any combination of extractors over a line table.
package features

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mvp-joe/ccflex/internal/pattern"
)

// DefaultMaxLength bounds the text regex-based extractors look at.
const DefaultMaxLength = 150

var (
	// ErrInvalidDescriptor indicates an unusable feature descriptor.
	ErrInvalidDescriptor = errors.New("invalid feature descriptor")

	// ErrUnknownExtractor indicates an extractor type with no registered factory.
	ErrUnknownExtractor = errors.New("unknown feature extractor")

	// ErrMissingColumn indicates an input table lacking a required column.
	ErrMissingColumn = errors.New("missing column in line table")
)

// Vector maps feature names to values.
type Vector map[string]float64

// Extractor computes features from a single line of text.
type Extractor interface {
	// FeatureNames returns the produced feature names in declaration order.
	FeatureNames() []string

	// Extract returns a value for every name in FeatureNames.
	Extract(text string) Vector
}

// Descriptor declares one feature as a name and a list of strings
// (literals or regular expressions, depending on the extractor).
type Descriptor struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Strings []string `mapstructure:"string" yaml:"string"`
}

// RegexOptions configures the regex-based extractors.
type RegexOptions struct {
	// MaxLength truncates the input, in characters (DefaultMaxLength if zero,
	// no truncation if negative).
	MaxLength int

	// Timeout bounds a single match attempt; zero disables it.
	Timeout time.Duration

	// Logger receives timeout reports. Nil discards them.
	Logger *slog.Logger
}

func (o RegexOptions) maxLength() int {
	if o.MaxLength == 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

func (o RegexOptions) logger() *slog.Logger {
	return orDiscard(o.Logger)
}

// compiledFeature is the immutable, compiled form of a Descriptor.
type compiledFeature struct {
	name     string
	literals []string
	patterns []*pattern.Regexp
}

func validateDescriptors(descs []Descriptor) error {
	if len(descs) == 0 {
		return fmt.Errorf("%w: no features declared", ErrInvalidDescriptor)
	}
	for i, d := range descs {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: feature %d has no name", ErrInvalidDescriptor, i)
		}
		if len(d.Strings) == 0 {
			return fmt.Errorf("%w: feature %q has no strings", ErrInvalidDescriptor, d.Name)
		}
		for _, s := range d.Strings {
			if s == "" {
				return fmt.Errorf("%w: feature %q has an empty string", ErrInvalidDescriptor, d.Name)
			}
		}
	}
	return nil
}

// compileDescriptors copies descriptors into compiled features. When compile
// is set the strings are also compiled as expressions in the given mode.
func compileDescriptors(descs []Descriptor, mode pattern.Mode, compile bool, timeout time.Duration) ([]compiledFeature, error) {
	if err := validateDescriptors(descs); err != nil {
		return nil, err
	}
	out := make([]compiledFeature, 0, len(descs))
	for _, d := range descs {
		cf := compiledFeature{
			name:     d.Name,
			literals: append([]string(nil), d.Strings...),
		}
		if compile {
			patterns, err := pattern.CompileAll(d.Strings, mode, timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %q: %v", ErrInvalidDescriptor, d.Name, err)
			}
			cf.patterns = patterns
		}
		out = append(out, cf)
	}
	return out, nil
}

func featureNames(features []compiledFeature) []string {
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.name
	}
	return names
}

// Truncate returns at most n characters of s. n < 0 disables truncation.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// runeLen is the character length used by the counting extractors.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
