// Package pattern compiles the user-supplied regular expressions used for
// file selection and feature counting.
//
// Expressions follow backtracking (Perl/Python-style) syntax, including
// lookaround, so configurations written for the original tooling keep their
// meaning. Every compiled expression may carry a match timeout that bounds
// catastrophic backtracking on pathological lines.
package pattern

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// Mode selects how an expression is anchored.
type Mode int

const (
	// Search finds matches anywhere in the input.
	Search Mode = iota

	// Prefix requires the match to start at the beginning of the input.
	Prefix

	// Full requires the match to span the entire input.
	Full

	// WholeWord requires no word character immediately before or after the match.
	WholeWord
)

// Regexp is an immutable compiled expression.
type Regexp struct {
	source string
	mode   Mode
	re     *regexp2.Regexp
}

// Compile compiles expr in the given mode. A zero timeout disables the
// match deadline.
func Compile(expr string, mode Mode, timeout time.Duration) (*Regexp, error) {
	wrapped := expr
	switch mode {
	case Search:
	case Prefix:
		wrapped = `\A(?:` + expr + `)`
	case Full:
		wrapped = `\A(?:` + expr + `)\z`
	case WholeWord:
		wrapped = `(?<!\w)(?:` + expr + `)(?!\w)`
	default:
		return nil, fmt.Errorf("unknown pattern mode %d", mode)
	}

	re, err := regexp2.Compile(wrapped, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	return &Regexp{source: expr, mode: mode, re: re}, nil
}

// CompileAll compiles every expression with the same mode and timeout.
func CompileAll(exprs []string, mode Mode, timeout time.Duration) ([]*Regexp, error) {
	out := make([]*Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := Compile(expr, mode, timeout)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// String returns the expression as written by the user.
func (r *Regexp) String() string {
	return r.source
}

// Match reports whether the expression matches s.
func (r *Regexp) Match(s string) (bool, error) {
	return r.re.MatchString(s)
}

// Count returns the number of non-overlapping matches in s, scanning left to
// right. If the match deadline expires, the matches found so far are
// returned together with the error.
func (r *Regexp) Count(s string) (int, error) {
	n := 0
	m, err := r.re.FindStringMatch(s)
	for m != nil && err == nil {
		n++
		m, err = r.re.FindNextMatch(m)
	}
	return n, err
}

// MatchAny reports whether any expression matches s.
func MatchAny(patterns []*Regexp, s string) (bool, error) {
	for _, p := range patterns {
		ok, err := p.Match(s)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
