package provider

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned before any upstream call is attempted when
// the API secret is not configured.
var ErrMissingCredential = errors.New("provider api secret is not configured")

type Error struct {
	Code       string
	Message    string
	StatusCode int
}

type errorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *Error) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsProviderError(err error) (*Error, bool) {
	var provErr *Error
	ok := errors.As(err, &provErr)
	return provErr, ok
}
