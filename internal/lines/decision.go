package lines

import (
	"fmt"
	"strings"
)

// Class is a supervised-learning label.
type Class struct {
	Name  string
	Value float64
}

// LabeledClass assigns Class to lines starting with LinePrefix.
type LabeledClass struct {
	LinePrefix string
	Class
}

// DecisionClasses is an ordered rule set with a fallback class.
type DecisionClasses struct {
	Labeled []LabeledClass
	Default Class
}

// Validate checks that every line will receive exactly one usable class.
func (d DecisionClasses) Validate() error {
	if strings.TrimSpace(d.Default.Name) == "" {
		return ErrEmptyDefaultClass
	}
	for i, c := range d.Labeled {
		if c.LinePrefix == "" {
			return fmt.Errorf("%w (rule %d, class %q)", ErrEmptyLinePrefix, i, c.Name)
		}
	}
	return nil
}

// Classify returns the line with the first matching prefix stripped, and the
// class of that rule. Lines matching no rule are returned unchanged with the
// default class.
func (d DecisionClasses) Classify(line string) (string, Class) {
	for _, c := range d.Labeled {
		if strings.HasPrefix(line, c.LinePrefix) {
			return line[len(c.LinePrefix):], c.Class
		}
	}
	return line, d.Default
}
