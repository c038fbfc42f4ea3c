package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error unwraps to exactly one of these.
var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
	ErrNotFound             = errors.New("not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrConfiguration        = errors.New("configuration error")
)

var (
	// ErrTokenMalformed covers unparsable tokens and bad signatures.
	ErrTokenMalformed = NewError(ErrAuthenticationFailed, "Malformed token")

	// ErrInvalidCredentials is the single error for every failed login, so
	// callers cannot tell an unknown user from a wrong password.
	ErrInvalidCredentials = NewError(ErrAuthenticationFailed, "Invalid username/email or password")

	ErrUsernameTaken = NewError(ErrConflict, "Username already exists")
	ErrEmailTaken    = NewError(ErrConflict, "Email already exists")
)

// Error is a domain error with a client-safe message.
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf formats a client-safe message under kind.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NotFoundError identifies a missing resource by name and id.
type NotFoundError struct {
	Resource string
	ID       any
}

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %v", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PublicMessage returns the innermost client-safe message in err's chain.
func PublicMessage(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error(), true
	}
	return "", false
}
