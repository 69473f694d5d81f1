// Package form holds field-level validation errors for submitted forms.
package form

import (
	"sort"
	"strconv"
	"strings"
)

// Errors maps a form field name to its validation message.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Any reports whether any field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Error implements error so a failed validation can travel as one.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return strings.Join(parts, "; ")
}

// Required adds a "This field is required." error when value is blank.
func (e Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "This field is required.")
	}
}

// NonNegativeInt parses value as a non-negative integer. An empty value is 0.
// A parse failure is recorded against field.
func (e Errors) NonNegativeInt(field, value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.Add(field, "Enter a whole number.")
		return 0
	}
	if n < 0 {
		e.Add(field, "Ensure this value is greater than or equal to 0.")
		return 0
	}
	return n
}
