package features

import (
	"strings"

	"github.com/mvp-joe/ccflex/internal/tokenize"
	"github.com/mvp-joe/ccflex/internal/vocabulary"
)

// DefaultSeparatorPlaceholder replaces a vocabulary token equal to the table
// separator in feature names.
const DefaultSeparatorPlaceholder = "__separator__"

// VectorizerBased counts occurrences of each token of a fitted vocabulary.
// Feature names follow the model's token order.
type VectorizerBased struct {
	names     []string
	index     map[string]int
	lowercase bool
	tokenizer tokenize.Tokenizer
}

// NewVectorizerBased creates an extractor over model. A token equal to
// separator is exposed under placeholder so it cannot break the output table.
func NewVectorizerBased(model *vocabulary.Model, separator, placeholder string) *VectorizerBased {
	if placeholder == "" {
		placeholder = DefaultSeparatorPlaceholder
	}
	e := &VectorizerBased{
		names:     make([]string, len(model.Tokens)),
		index:     make(map[string]int, len(model.Tokens)),
		lowercase: model.Lowercase,
		tokenizer: tokenize.Tokenize,
	}
	for i, tok := range model.Tokens {
		e.index[tok] = i
		if tok == separator {
			e.names[i] = placeholder
		} else {
			e.names[i] = tok
		}
	}
	return e
}

func (e *VectorizerBased) FeatureNames() []string { return e.names }

func (e *VectorizerBased) Extract(text string) Vector {
	if e.lowercase {
		text = strings.ToLower(text)
	}
	counts := make([]int, len(e.names))
	for _, tok := range e.tokenizer(text) {
		if i, ok := e.index[tok]; ok {
			counts[i]++
		}
	}
	v := make(Vector, len(e.names))
	for i, name := range e.names {
		v[name] = float64(counts[i])
	}
	return v
}
