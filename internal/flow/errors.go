package flow

import (
	"errors"
	"fmt"
)

var (
	ErrFlowNotFound = errors.New("flow not found")
	// ErrFlowActive rejects opening a second flow while one is still in
	// progress: one active flow per operator session.
	ErrFlowActive = errors.New("another payment flow is still active")
	// ErrUnknownTerminal rejects a terminal id that is not part of the
	// flow's enabled-terminal snapshot.
	ErrUnknownTerminal = errors.New("terminal is not available in this flow")
)

// InvalidActionError reports an operator action that the current state does
// not accept.
type InvalidActionError struct {
	State  State
	Action string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("action %q is not allowed in state %s", e.Action, e.State)
}

func newInvalidAction(state State, action string) *InvalidActionError {
	return &InvalidActionError{State: state, Action: action}
}

func IsInvalidAction(err error) (*InvalidActionError, bool) {
	var actionErr *InvalidActionError
	ok := errors.As(err, &actionErr)
	return actionErr, ok
}
