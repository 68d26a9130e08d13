package core

import (
	"fmt"
	"strings"
)

// Problems accumulates validation messages for one mutation. The zero value
// is ready to use; Err returns nil when nothing was recorded, so a mutation
// is either fully valid or rejected with every message at once.
type Problems []string

// Add records a pre-formatted message.
func (p *Problems) Add(message string) {
	*p = append(*p, message)
}

// Require records a message when value is empty after trimming.
func (p *Problems) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		p.Add(field + " must not be empty")
	}
}

// MinLength records a message when a non-empty value is shorter than n runes.
// Emptiness is Require's concern; both firing for one field would be noise.
func (p *Problems) MinLength(field, value string, n int) {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && len([]rune(trimmed)) < n {
		p.Add(fmt.Sprintf("%s must be at least %d characters long", field, n))
	}
}

// Unique records the uniqueness message for a field. Called from the
// persistence boundary when the store reports a duplicate.
func (p *Problems) Unique(field string) {
	p.Add(field + " must be unique")
}

// None records the missing-choice message for enum-like fields.
func (p *Problems) None(field string) {
	p.Add(field + " must not be None")
}

// Err returns nil when no problems were recorded, otherwise a
// ValidationError carrying all of them.
func (p Problems) Err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Messages: p}
}
