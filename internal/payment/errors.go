package payment

import (
	"errors"
	"fmt"
)

// ErrorKind classifies attempt failures for the flow controller and the
// operator UI. Declines are not errors: they arrive as a rejected Outcome.
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "CONFIGURATION"
	KindCommunication     ErrorKind = "COMMUNICATION"
	KindProviderRejection ErrorKind = "PROVIDER_REJECTION"
	KindTimeout           ErrorKind = "TIMEOUT_EXCEEDED"
	KindUnexpectedStatus  ErrorKind = "UNEXPECTED_STATUS"
)

type AttemptError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AttemptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(err error) *AttemptError {
	return &AttemptError{
		Kind:    KindConfiguration,
		Message: "payment provider credential is not configured",
		Err:     err,
	}
}

func NewCommunicationError(err error) *AttemptError {
	return &AttemptError{
		Kind:    KindCommunication,
		Message: "could not reach the payment provider",
		Err:     err,
	}
}

func NewProviderRejectionError(message string, err error) *AttemptError {
	if message == "" {
		message = "the payment provider refused the request"
	}
	return &AttemptError{
		Kind:    KindProviderRejection,
		Message: message,
		Err:     err,
	}
}

func NewTimeoutError(elapsedSeconds int) *AttemptError {
	return &AttemptError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("timed out after %ds waiting for the terminal; it may still be mid-transaction", elapsedSeconds),
	}
}

func NewUnexpectedStatusError(rawStatus string) *AttemptError {
	return &AttemptError{
		Kind:    KindUnexpectedStatus,
		Message: fmt.Sprintf("unexpected terminal status %q", rawStatus),
	}
}

func IsAttemptError(err error) (*AttemptError, bool) {
	var attemptErr *AttemptError
	ok := errors.As(err, &attemptErr)
	return attemptErr, ok
}
