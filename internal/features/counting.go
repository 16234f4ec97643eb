package features

import (
	"log/slog"
	"strings"

	"github.com/maypok86/otter"
	"github.com/mvp-joe/ccflex/internal/pattern"
	"github.com/mvp-joe/ccflex/internal/tokenize"
)

// maxTokenLength bounds each token matched by TokenizedWholeWordCounting.
const maxTokenLength = 50

// DefaultTokenCacheSize is the number of token match results kept per extractor.
const DefaultTokenCacheSize = 10_000

// SubstringCounting counts non-overlapping, left-to-right occurrences of
// literal strings, summed per feature.
type SubstringCounting struct {
	features []compiledFeature
}

// NewSubstringCounting creates a substring counting extractor.
func NewSubstringCounting(descs []Descriptor) (*SubstringCounting, error) {
	features, err := compileDescriptors(descs, pattern.Search, false, 0)
	if err != nil {
		return nil, err
	}
	return &SubstringCounting{features: features}, nil
}

func (e *SubstringCounting) FeatureNames() []string { return featureNames(e.features) }

func (e *SubstringCounting) Extract(text string) Vector {
	v := make(Vector, len(e.features))
	for _, f := range e.features {
		n := 0
		for _, lit := range f.literals {
			n += strings.Count(text, lit)
		}
		v[f.name] = float64(n)
	}
	return v
}

// regexCounter counts matches of compiled expressions over truncated text.
type regexCounter struct {
	features  []compiledFeature
	maxLength int
	logger    *slog.Logger
}

func newRegexCounter(descs []Descriptor, mode pattern.Mode, opts RegexOptions) (*regexCounter, error) {
	features, err := compileDescriptors(descs, mode, true, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return &regexCounter{features: features, maxLength: opts.maxLength(), logger: opts.logger()}, nil
}

func (c *regexCounter) extract(text string) Vector {
	text = Truncate(text, c.maxLength)
	v := make(Vector, len(c.features))
	for _, f := range c.features {
		n := 0
		for _, p := range f.patterns {
			count, err := p.Count(text)
			if err != nil {
				c.logger.Warn("pattern match abandoned", "feature", f.name, "pattern", p.String(), "error", err)
			}
			n += count
		}
		v[f.name] = float64(n)
	}
	return v
}

// WholeWordCounting counts matches that have no word character immediately
// before or after them.
type WholeWordCounting struct {
	counter *regexCounter
}

// NewWholeWordCounting creates a whole-word counting extractor.
func NewWholeWordCounting(descs []Descriptor, opts RegexOptions) (*WholeWordCounting, error) {
	c, err := newRegexCounter(descs, pattern.WholeWord, opts)
	if err != nil {
		return nil, err
	}
	return &WholeWordCounting{counter: c}, nil
}

func (e *WholeWordCounting) FeatureNames() []string { return featureNames(e.counter.features) }

func (e *WholeWordCounting) Extract(text string) Vector { return e.counter.extract(text) }

// RegexpCounting counts all non-overlapping matches of each expression.
type RegexpCounting struct {
	counter *regexCounter
}

// NewRegexpCounting creates a regular expression counting extractor.
func NewRegexpCounting(descs []Descriptor, opts RegexOptions) (*RegexpCounting, error) {
	c, err := newRegexCounter(descs, pattern.Search, opts)
	if err != nil {
		return nil, err
	}
	return &RegexpCounting{counter: c}, nil
}

func (e *RegexpCounting) FeatureNames() []string { return featureNames(e.counter.features) }

func (e *RegexpCounting) Extract(text string) Vector { return e.counter.extract(text) }

// TokenizedWholeWordCounting tokenizes the text and counts, per feature, the
// tokens that fully match any of the feature's expressions. Match results
// are cached per token since code vocabularies repeat heavily.
type TokenizedWholeWordCounting struct {
	features  []compiledFeature
	maxLength int
	tokenizer tokenize.Tokenizer
	cache     otter.Cache[string, []bool]
	logger    *slog.Logger
}

// NewTokenizedWholeWordCounting creates a tokenized whole-word counting
// extractor. cacheSize <= 0 selects DefaultTokenCacheSize.
func NewTokenizedWholeWordCounting(descs []Descriptor, opts RegexOptions, cacheSize int) (*TokenizedWholeWordCounting, error) {
	features, err := compileDescriptors(descs, pattern.Full, true, opts.Timeout)
	if err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		cacheSize = DefaultTokenCacheSize
	}
	cache, err := otter.MustBuilder[string, []bool](cacheSize).Build()
	if err != nil {
		return nil, err
	}
	return &TokenizedWholeWordCounting{
		features:  features,
		maxLength: opts.maxLength(),
		tokenizer: tokenize.Tokenize,
		cache:     cache,
		logger:    opts.logger(),
	}, nil
}

func (e *TokenizedWholeWordCounting) FeatureNames() []string { return featureNames(e.features) }

func (e *TokenizedWholeWordCounting) Extract(text string) Vector {
	counts := make([]int, len(e.features))
	for _, token := range e.tokenizer(Truncate(text, e.maxLength)) {
		for i, hit := range e.matches(Truncate(token, maxTokenLength)) {
			if hit {
				counts[i]++
			}
		}
	}

	v := make(Vector, len(e.features))
	for i, f := range e.features {
		v[f.name] = float64(counts[i])
	}
	return v
}

// matches reports, per feature, whether token fully matches any expression.
func (e *TokenizedWholeWordCounting) matches(token string) []bool {
	if hits, ok := e.cache.Get(token); ok {
		return hits
	}

	hits := make([]bool, len(e.features))
	cacheable := true
	for i, f := range e.features {
		ok, err := pattern.MatchAny(f.patterns, token)
		if err != nil {
			cacheable = false
			e.logger.Warn("pattern match abandoned", "feature", f.name, "token", token, "error", err)
			continue
		}
		hits[i] = ok
	}
	if cacheable {
		e.cache.Set(token, hits)
	}
	return hits
}

// Close releases the token cache.
func (e *TokenizedWholeWordCounting) Close() error {
	e.cache.Close()
	return nil
}
