package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is wrapped by every ValidationError.
var ErrInvalidParameters = errors.New("invalid build parameters")

// ErrNotFound is wrapped by every NotFoundError.
var ErrNotFound = errors.New("technique not found")

// ErrBrokenGraph is returned when a graph wires an input to a node it does not contain.
var ErrBrokenGraph = errors.New("broken graph")

// ErrorCode is a stable, machine-readable reason attached to a ValidationError.
type ErrorCode string

const (
	CodeMissingPrompt         ErrorCode = "MISSING_PROMPT"
	CodeMissingReferenceImage ErrorCode = "MISSING_REFERENCE_IMAGE"
	CodeInvalidValue          ErrorCode = "INVALID_VALUE"
)

// ValidationError reports build parameters that cannot produce a graph.
type ValidationError struct {
	Code   ErrorCode
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidParameters }

// NotFoundError reports an unknown technique id.
type NotFoundError struct {
	ID TechniqueID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("technique %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
