// Package forms holds field-level validation errors shared by the form
// handling services.
package forms

import (
	"sort"
	"strings"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a form field to the first problem found with it. A non-empty
// Errors is returned as an error by the services; nothing is applied.
type Errors map[string]string

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Any() bool {
	return len(e) > 0
}

// Err returns e as an error, or nil when it is empty.
func (e Errors) Err() error {
	if !e.Any() {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}
