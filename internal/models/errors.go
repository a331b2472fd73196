package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes surfaced to callers.
// Typed errors below unwrap to these so callers can use errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrIncompleteInput    = errors.New("incomplete input")
)

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvariantError names the violated invariant. It aborts the enclosing transaction.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return "invariant violated: " + e.Invariant
	}
	return fmt.Sprintf("invariant violated: %s (%s)", e.Invariant, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// IncompleteInputError reports a required field that was not supplied.
type IncompleteInputError struct {
	Field string
}

func (e *IncompleteInputError) Error() string {
	return "missing required field: " + e.Field
}

func (e *IncompleteInputError) Unwrap() error { return ErrIncompleteInput }

// NotFound returns a *NotFoundError for entity and id.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Invariant returns an *InvariantError with a formatted detail.
func Invariant(invariant, format string, args ...any) error {
	return &InvariantError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// Missing returns an *IncompleteInputError for field.
func Missing(field string) error {
	return &IncompleteInputError{Field: field}
}
