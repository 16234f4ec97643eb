package features

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mvp-joe/ccflex/internal/vocabulary"
)

// Spec configures one extractor: a registered type plus type-specific params.
type Spec struct {
	Type   string
	Params map[string]any
}

// BuildOptions carries run-wide settings shared by every factory.
type BuildOptions struct {
	// Separator is the output table field separator.
	Separator string

	// RegexTimeout bounds a single regex match attempt.
	RegexTimeout time.Duration

	// ModelDir is where relative vectorizer model paths are resolved.
	ModelDir string

	// DefaultModel is the vectorizer model used when none is configured.
	DefaultModel string

	Logger *slog.Logger
}

// modelPath resolves a vectorizer model path against ModelDir.
func (o BuildOptions) modelPath(model string) string {
	if model == "" {
		model = o.DefaultModel
	}
	if model == "" || filepath.IsAbs(model) || o.ModelDir == "" {
		return model
	}
	return filepath.Join(o.ModelDir, model)
}

// Factory builds an extractor from its params.
type Factory func(params map[string]any, opts BuildOptions) (Extractor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a factory available under name, replacing any previous one.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Types returns the registered extractor types, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs the extractors in order. On error, extractors already
// built are closed.
func Build(specs []Spec, opts BuildOptions) ([]Extractor, error) {
	out := make([]Extractor, 0, len(specs))
	for i, spec := range specs {
		registryMu.RLock()
		factory, ok := registry[spec.Type]
		registryMu.RUnlock()
		if !ok {
			CloseAll(out)
			return nil, fmt.Errorf("%w: %q (extractor %d)", ErrUnknownExtractor, spec.Type, i)
		}
		params := spec.Params
		if params == nil {
			params = map[string]any{}
		}
		e, err := factory(params, opts)
		if err != nil {
			CloseAll(out)
			return nil, fmt.Errorf("failed to build %s extractor: %w", spec.Type, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// CloseAll releases the resources held by extractors that have any.
func CloseAll(extractors []Extractor) error {
	var errs []error
	for _, e := range extractors {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

type literalParams struct {
	Features []Descriptor `mapstructure:"features"`
}

type regexParams struct {
	Features  []Descriptor `mapstructure:"features"`
	MaxLength int          `mapstructure:"max_length"`
}

type tokenizedParams struct {
	Features  []Descriptor `mapstructure:"features"`
	MaxLength int          `mapstructure:"max_length"`
	CacheSize int          `mapstructure:"cache_size"`
}

type vectorizerParams struct {
	Model                string `mapstructure:"model"`
	SeparatorPlaceholder string `mapstructure:"separator_placeholder"`
}

func regexOptions(maxLength int, opts BuildOptions) RegexOptions {
	return RegexOptions{MaxLength: maxLength, Timeout: opts.RegexTimeout, Logger: opts.Logger}
}

// noParams builds a parameterless extractor, rejecting any params given.
func noParams(build func() Extractor) Factory {
	return func(params map[string]any, _ BuildOptions) (Extractor, error) {
		var none struct{}
		if err := decodeParams(params, &none); err != nil {
			return nil, err
		}
		return build(), nil
	}
}

func init() {
	Register("substring", func(params map[string]any, _ BuildOptions) (Extractor, error) {
		var p literalParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewSubstringCounting(p.Features)
	})
	Register("whole_word", func(params map[string]any, opts BuildOptions) (Extractor, error) {
		var p regexParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewWholeWordCounting(p.Features, regexOptions(p.MaxLength, opts))
	})
	Register("regexp", func(params map[string]any, opts BuildOptions) (Extractor, error) {
		var p regexParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewRegexpCounting(p.Features, regexOptions(p.MaxLength, opts))
	})
	Register("tokenized_whole_word", func(params map[string]any, opts BuildOptions) (Extractor, error) {
		var p tokenizedParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return NewTokenizedWholeWordCounting(p.Features, regexOptions(p.MaxLength, opts), p.CacheSize)
	})
	Register("vectorizer", func(params map[string]any, opts BuildOptions) (Extractor, error) {
		var p vectorizerParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		path := opts.modelPath(p.Model)
		if path == "" {
			return nil, fmt.Errorf("%w: vectorizer needs a model path", ErrInvalidDescriptor)
		}
		model, err := vocabulary.LoadModel(path)
		if err != nil {
			return nil, err
		}
		return NewVectorizerBased(model, opts.Separator, p.SeparatorPlaceholder), nil
	})

	Register("comment", noParams(func() Extractor { return Comment{} }))
	Register("whole_line_comment", noParams(func() Extractor { return NewWholeLineComment() }))
	Register("python_whole_line_comment", noParams(func() Extractor { return NewPythonWholeLineComment() }))
	Register("blank_line", noParams(func() Extractor { return BlankLine{} }))
	Register("word_count", noParams(func() Extractor { return WordCount{} }))
	Register("char_count", noParams(func() Extractor { return CharCount{} }))
}
