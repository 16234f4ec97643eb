package vocabulary

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Model is a fitted count-vectorizer vocabulary. Token order defines the
// feature order.
type Model struct {
	Tokens    []string `yaml:"tokens"`
	Lowercase bool     `yaml:"lowercase"`
}

// FitOptions selects which tokens enter the model.
type FitOptions struct {
	// MinFiles drops tokens found in fewer files.
	MinFiles int

	// MaxTokens keeps at most this many tokens by descending count (0 keeps all).
	MaxTokens int

	// Lowercase records that the entries were lower-cased.
	Lowercase bool
}

// Fit builds a model from vocabulary entries. The selected tokens are stored
// in lexical order.
func Fit(entries []Entry, opts FitOptions) *Model {
	ranked := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Files >= opts.MinFiles {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Token < ranked[j].Token
	})
	if opts.MaxTokens > 0 && len(ranked) > opts.MaxTokens {
		ranked = ranked[:opts.MaxTokens]
	}

	tokens := make([]string, len(ranked))
	for i, e := range ranked {
		tokens[i] = e.Token
	}
	sort.Strings(tokens)
	return &Model{Tokens: tokens, Lowercase: opts.Lowercase}
}

// Save writes the model as YAML.
func (m *Model) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode vectorizer model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vectorizer model: %w", err)
	}
	return nil
}

// LoadModel reads a model saved with Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vectorizer model: %w", err)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode vectorizer model %s: %w", path, err)
	}
	if len(m.Tokens) == 0 {
		return nil, fmt.Errorf("vectorizer model %s has no tokens", path)
	}
	return &m, nil
}
