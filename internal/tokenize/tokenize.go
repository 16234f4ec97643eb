// Package tokenize splits code lines into crude tokens on stop characters.
//
// It is not a language tokenizer: every delimiter is kept as its own token
// and runs of digits collapse to "0". Feature extraction and vocabulary
// counting use the same function so that their tokens agree.
package tokenize

import (
	"unicode"
	"unicode/utf8"
)

// Tokenizer turns a line into tokens.
type Tokenizer func(text string) []string

// isStop reports whether r is one of the code stop characters.
func isStop(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}',
		'!', '@', '#', '$', '%', '^', '&', '*', '/', '+', '-', '=', ';', ':',
		'\\', '|', '`', '\'', '"', '~', ',', '.', '<', '>', '?', '\n':
		return true
	}
	return unicode.IsSpace(r)
}

// Tokenize splits text on stop characters, keeping each stop character as a
// token, dropping empty tokens and replacing all-digit tokens with "0".
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/2+1)
	start := 0
	for i, r := range text {
		if !isStop(r) {
			continue
		}
		if i > start {
			tokens = append(tokens, normalize(text[start:i]))
		}
		end := i + utf8.RuneLen(r)
		tokens = append(tokens, text[i:end])
		start = end
	}
	if start < len(text) {
		tokens = append(tokens, normalize(text[start:]))
	}
	return tokens
}

func normalize(token string) string {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return token
		}
	}
	return "0"
}
