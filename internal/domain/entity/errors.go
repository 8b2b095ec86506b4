package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrDuplicateUUID indicates that an item with the same UUID is already
	// known to the pipeline (already cached, or already in flight)
	ErrDuplicateUUID = errors.New("duplicate uuid")

	// ErrKeyExhausted indicates that the key rotator has no usable API key
	// left to select
	ErrKeyExhausted = errors.New("api key pool exhausted")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is lets errors.Is treat any ValidationError as ErrValidationFailed, so
// callers can branch on the error class without inspecting the field.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
