package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrParseFailure      = errors.New("model response is not valid JSON")
	ErrEmptyResponse     = errors.New("empty model response")
	ErrNotFound          = errors.New("not found")
)

// InputValidationError reports a request that does not satisfy the
// generation contract. It matches ErrInvalidInput with errors.Is.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputValidationError) Unwrap() error { return ErrInvalidInput }

func InvalidInput(field, format string, args ...any) error {
	return &InputValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransportError is a non-success status from an upstream model endpoint.
type TransportError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d", e.Provider, e.StatusCode)
}
