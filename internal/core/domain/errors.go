package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it to a status code with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// Validation failures.
var (
	ErrMissingField    = fmt.Errorf("%w: required field is missing", ErrValidation)
	ErrInvalidEmail    = fmt.Errorf("%w: email address is not valid", ErrValidation)
	ErrWeakPassword    = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	ErrInvalidRole     = fmt.Errorf("%w: role must be admin or customer", ErrValidation)
	ErrEmptyOrder      = fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	ErrInvalidLineItem = fmt.Errorf("%w: line item is not valid", ErrValidation)
)

// Authentication failures. Expired, revoked and tampered tokens are only
// distinguishable in logs; clients see a plain 401.
var (
	ErrTokenInvalid = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenRevoked = fmt.Errorf("%w: token revoked", ErrUnauthenticated)
)

var (
	ErrUserNotFound  = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrOwnerNotFound = fmt.Errorf("%w: order owner not found", ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("%w: order not found", ErrNotFound)
)

var (
	ErrEmailTaken      = fmt.Errorf("%w: an account with this email already exists", ErrConflict)
	ErrRequestInFlight = fmt.Errorf("%w: a request with this idempotency key is still being processed", ErrConflict)
)

// FieldError ties an error to the request field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// WithField annotates err with the name of the offending field.
func WithField(err error, field string) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: field, Err: err}
}

// FieldOf returns the field attached to err, if any.
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
