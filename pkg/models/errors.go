package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a content item, tier or purchase does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write would duplicate an existing record
	ErrConflict = errors.New("conflict")

	// ErrMissingUser is returned when members-only content is requested without a user
	ErrMissingUser = errors.New("user id required for members-only content")

	// ErrAccessDenied is returned when the user holds no qualifying tier
	ErrAccessDenied = errors.New("access denied")

	// ErrUpstreamUnavailable is returned when the subscription lookup cannot complete
	ErrUpstreamUnavailable = errors.New("subscription service unavailable")

	// ErrKycNotVerified is returned when a payout is requested before KYC is verified
	ErrKycNotVerified = errors.New("creator must complete KYC verification before withdrawing funds")
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
