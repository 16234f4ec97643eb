package features

import (
	"path/filepath"
	"testing"

	"github.com/mvp-joe/ccflex/internal/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Registry:
// - Every built-in type is registered
// - Build decodes descriptors from config-shaped maps, in order
// - Descriptor lists given as JSON strings are decoded
// - Unknown types and unknown params are rejected
// - Parameterless extractors reject params
// - Vectorizer loads its model and needs a model path
// - Relative and omitted vectorizer models resolve against ModelDir

func TestTypes_BuiltIns(t *testing.T) {
	t.Parallel()

	assert.Subset(t, Types(), []string{
		"substring", "whole_word", "tokenized_whole_word", "regexp",
		"comment", "whole_line_comment", "python_whole_line_comment",
		"blank_line", "word_count", "char_count", "vectorizer",
	})
}

func TestBuild_FromConfigMaps(t *testing.T) {
	t.Parallel()

	specs := []Spec{
		{Type: "substring", Params: map[string]any{
			"features": []any{
				map[string]any{"name": "eq", "string": []any{"=="}},
			},
		}},
		{Type: "tokenized_whole_word", Params: map[string]any{
			"features":   []any{map[string]any{"name": "kw", "string": "if"}},
			"max_length": "80",
			"cache_size": 32,
		}},
		{Type: "char_count"},
	}

	extractors, err := Build(specs, BuildOptions{Separator: ","})
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseAll(extractors) })

	require.Len(t, extractors, 3)
	assert.Equal(t, []string{"eq"}, extractors[0].FeatureNames())
	assert.Equal(t, []string{"kw"}, extractors[1].FeatureNames())
	assert.Equal(t, Vector{"kw": 1}, extractors[1].Extract("if (a == b)"))
	assert.Equal(t, []string{"no_chars"}, extractors[2].FeatureNames())
}

func TestBuild_JSONStringFeatures(t *testing.T) {
	t.Parallel()

	extractors, err := Build([]Spec{{
		Type:   "regexp",
		Params: map[string]any{"features": `[{"name": "num", "string": ["\\d+"]}]`},
	}}, BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, Vector{"num": 2}, extractors[0].Extract("a1 b2"))
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"unknown type", Spec{Type: "sentiment"}, ErrUnknownExtractor},
		{"unknown param", Spec{Type: "substring", Params: map[string]any{
			"features": []any{map[string]any{"name": "a", "string": []any{"a"}}},
			"maxlength": 3,
		}}, ErrInvalidDescriptor},
		{"missing features", Spec{Type: "whole_word"}, ErrInvalidDescriptor},
		{"params on simple extractor", Spec{Type: "comment", Params: map[string]any{"x": 1}}, ErrInvalidDescriptor},
		{"vectorizer without model", Spec{Type: "vectorizer"}, ErrInvalidDescriptor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Build([]Spec{{Type: "blank_line"}, tt.spec}, BuildOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_Vectorizer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.yml")
	require.NoError(t, (&vocabulary.Model{Tokens: []string{";", "x"}}).Save(path))

	extractors, err := Build([]Spec{{
		Type:   "vectorizer",
		Params: map[string]any{"model": path, "separator_placeholder": "SEMI"},
	}}, BuildOptions{Separator: ";"})
	require.NoError(t, err)

	assert.Equal(t, []string{"SEMI", "x"}, extractors[0].FeatureNames())
	assert.Equal(t, Vector{"SEMI": 1, "x": 1}, extractors[0].Extract("x;"))
}

func TestBuild_VectorizerModelDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, (&vocabulary.Model{Tokens: []string{"x"}}).Save(filepath.Join(dir, "vectorizer.yml")))
	require.NoError(t, (&vocabulary.Model{Tokens: []string{"y"}}).Save(filepath.Join(dir, "other.yml")))

	opts := BuildOptions{ModelDir: dir, DefaultModel: "vectorizer.yml"}

	tests := []struct {
		name   string
		params map[string]any
		want   []string
	}{
		{"default model", nil, []string{"x"}},
		{"relative model", map[string]any{"model": "other.yml"}, []string{"y"}},
		{"absolute model", map[string]any{"model": filepath.Join(dir, "other.yml")}, []string{"y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			extractors, err := Build([]Spec{{Type: "vectorizer", Params: tt.params}}, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, extractors[0].FeatureNames())
		})
	}
}
