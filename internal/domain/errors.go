package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrTransitionRejected = errors.New("status transition rejected")
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when an entity cannot be saved as-is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// TransitionRejectedError carries enough context for a staff client to show
// why the requested status was refused.
type TransitionRejectedError struct {
	OrderID   int
	Current   Status
	Requested Status
	Expected  Status
}

func (e *TransitionRejectedError) Error() string {
	if e.Current == e.Expected {
		return fmt.Sprintf("order %d is already %s; no further transition", e.OrderID, e.Current)
	}
	return fmt.Sprintf("order %d cannot move from %s to %s; next status is %s",
		e.OrderID, e.Current, e.Requested, e.Expected)
}

func (e *TransitionRejectedError) Unwrap() error { return ErrTransitionRejected }
