// Package form holds the ordered catalog of questions asked during a session
// and the validators that gate each answer.
package form

import (
	"fmt"
	"strings"
)

// Validator reports whether a trimmed answer is acceptable for a field.
type Validator func(value string) bool

// Field is one datum collected from the user.
type Field struct {
	// Name is the stable key the answer is stored under.
	Name string

	// Label prefixes the answer in the review summary.
	Label string

	// Prompt is the question shown to the user.
	Prompt string

	// Validate gates the answer.
	Validate Validator
}

// Catalog is the fixed, ordered list of fields. Order is significant: the
// i-th accepted answer always belongs to the i-th field.
type Catalog []Field

// Len returns the number of fields.
func (c Catalog) Len() int {
	return len(c)
}

// Check verifies that every field is usable and names are unique.
func (c Catalog) Check() error {
	if len(c) == 0 {
		return fmt.Errorf("form: empty catalog")
	}
	seen := make(map[string]struct{}, len(c))
	for i, f := range c {
		if f.Name == "" {
			return fmt.Errorf("form: field %d has no name", i)
		}
		if f.Validate == nil {
			return fmt.Errorf("form: field %q has no validator", f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form: duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Summary renders "label: value" lines for every field in catalog order.
func (c Catalog) Summary(answers map[string]string) string {
	lines := make([]string, 0, len(c))
	for _, f := range c {
		lines = append(lines, f.Label+": "+answers[f.Name])
	}
	return strings.Join(lines, "\n")
}
