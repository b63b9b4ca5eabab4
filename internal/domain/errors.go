package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")

	ErrConfiguration = errors.New("configuration error")
	ErrExtraction    = errors.New("extraction error")
	ErrStorage       = errors.New("storage error")
	ErrIntegrity     = errors.New("integrity mismatch")
	ErrPermission    = errors.New("permission denied")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ConfigurationError reports an unknown or malformed ruleset. It is fatal and never retried.
type ConfigurationError struct {
	Ruleset string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration: unknown ruleset %q", e.Ruleset)
	}
	return fmt.Sprintf("configuration: ruleset %q: %s", e.Ruleset, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ExtractionError reports that no text could be produced for a document.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction: %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

// StorageError reports an object store failure for a given relative path.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// IntegrityMismatch reports that stored bytes no longer hash to the recorded digest.
type IntegrityMismatch struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityMismatch) Error() string {
	return fmt.Sprintf("integrity: %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func (e *IntegrityMismatch) Unwrap() error { return ErrIntegrity }

// PermissionError reports a rejected role or tenant check.
// It matches both ErrPermission and ErrForbidden.
type PermissionError struct {
	Action string
	Role   UserRole
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission: %s as %s: %s", e.Action, e.Role, e.Reason)
}

func (e *PermissionError) Unwrap() []error { return []error{ErrPermission, ErrForbidden} }
