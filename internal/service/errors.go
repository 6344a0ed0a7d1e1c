package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for records that are missing or owned by
	// another user. Callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned when an email/password pair does not
	// match an active user.
	ErrInvalidCredentials = &AuthenticationError{Message: "Unable to authenticate with provided credentials."}

	// ErrInvalidToken is returned when a token key does not resolve to an
	// active user.
	ErrInvalidToken = &AuthenticationError{Message: "Invalid token."}
)

// AuthenticationError reports a failed credential or token check.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single message on field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add appends a message to field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field has a message.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it carries messages and nil otherwise, so a
// collected ValidationError can be returned directly as an error.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthentication reports whether err is or wraps an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
