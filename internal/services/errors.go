package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound marks lookups for orders, references, or accounts that do not
// exist. The webhook pipeline treats it as terminal: an unknown payment
// reference will never appear later.
var ErrNotFound = errors.New("not found")

// ValidationError carries field-level detail for bad input. Handlers render
// it as a 400 with the field map.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, detail string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: detail}}
}

func (e *ValidationError) Add(field, detail string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = detail
	return e
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
