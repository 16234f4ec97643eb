package features

import (
	"strings"
	"unicode"
)

// Comment counts comment markers: "//", "/*" and "*/".
type Comment struct{}

func (Comment) FeatureNames() []string { return []string{"comment"} }

func (Comment) Extract(text string) Vector {
	n := strings.Count(text, "//") + strings.Count(text, "/*") + strings.Count(text, "*/")
	return Vector{"comment": float64(n)}
}

// WholeLineComment is 1 when the line, ignoring leading whitespace, starts
// with a line comment marker.
type WholeLineComment struct {
	name   string
	marker string
}

// NewWholeLineComment detects C-family "//" line comments.
func NewWholeLineComment() *WholeLineComment {
	return &WholeLineComment{name: "whole_line_comment", marker: "//"}
}

// NewPythonWholeLineComment detects "#" line comments.
func NewPythonWholeLineComment() *WholeLineComment {
	return &WholeLineComment{name: "whole_line_comment", marker: "#"}
}

func (e *WholeLineComment) FeatureNames() []string { return []string{e.name} }

func (e *WholeLineComment) Extract(text string) Vector {
	return Vector{e.name: indicator(strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), e.marker))}
}

// BlankLine is 1 for empty or all-whitespace lines.
type BlankLine struct{}

func (BlankLine) FeatureNames() []string { return []string{"blank_line"} }

func (BlankLine) Extract(text string) Vector {
	return Vector{"blank_line": indicator(strings.TrimSpace(text) == "")}
}

// WordCount counts whitespace-delimited words.
type WordCount struct{}

func (WordCount) FeatureNames() []string { return []string{"no_words"} }

func (WordCount) Extract(text string) Vector {
	return Vector{"no_words": float64(len(strings.Fields(text)))}
}

// CharCount counts characters.
type CharCount struct{}

func (CharCount) FeatureNames() []string { return []string{"no_chars"} }

func (CharCount) Extract(text string) Vector {
	return Vector{"no_chars": float64(runeLen(text))}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
