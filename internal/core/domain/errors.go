package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrAuthenticationRequired = errors.New("authentication credentials were not provided")
	ErrPermissionDenied       = errors.New("you do not have permission to perform this action")
	ErrUserExists             = errors.New("user with this email address already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInactiveAccount        = errors.New("account is inactive")
	ErrInvalidImage           = errors.New("invalid image")
	ErrImageTooLarge          = errors.New("image dimensions too large")
)

// ValidationError collects field-level messages for a rejected request.
// Messages never echo submitted values.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field already carries a message.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError is a shorthand for a single-field ValidationError.
func FieldError(field, msg string) *ValidationError {
	ve := NewValidationError()
	ve.Add(field, msg)
	return ve
}
