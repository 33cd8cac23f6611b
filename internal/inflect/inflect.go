// Package inflect provides the singularization rules backing the
// template waterfall. Rules are pluggable: callers may supply a
// lookup table for domain-specific or non-English directory names.
package inflect

import (
	"strings"

	"github.com/gertd/go-pluralize"
)

// Singularizer converts a plural directory name to its singular form.
type Singularizer struct {
	client    *pluralize.Client
	overrides map[string]string
}

// Option configures a Singularizer.
type Option func(*Singularizer)

// WithOverrides supplies caller-defined singular forms that take
// precedence over the rule engine. Keys are matched case-insensitively.
func WithOverrides(overrides map[string]string) Option {
	return func(s *Singularizer) {
		for k, v := range overrides {
			s.overrides[strings.ToLower(k)] = v
		}
	}
}

// New creates a Singularizer with the default English rule set.
func New(opts ...Option) *Singularizer {
	s := &Singularizer{
		client:    pluralize.NewClient(),
		overrides: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Singular returns the singular form of word. Overrides win; otherwise
// the rule engine applies (which subsumes the plain trailing-s and -es
// conventions). Words already singular come back unchanged.
func (s *Singularizer) Singular(word string) string {
	if word == "" {
		return word
	}
	if override, ok := s.overrides[strings.ToLower(word)]; ok {
		return override
	}
	return s.client.Singular(word)
}
