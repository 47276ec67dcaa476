package flow

// State is the externally observable position of a payment flow.
type State string

const (
	// StateSelectTerminal is the initial state: the operator has to pick
	// one of the enabled terminals before anything else can happen.
	StateSelectTerminal State = "SELECT_TERMINAL"
	// StateInitial holds a validated terminal choice, waiting for the
	// operator to confirm the start of the payment.
	StateInitial State = "INITIAL"
	// StateSending covers the intent submission call.
	StateSending State = "SENDING"
	// StateProcessing covers polling while the cardholder interacts with
	// the terminal.
	StateProcessing State = "PROCESSING"
	StateSuccess    State = "SUCCESS"
	// StateRejected is a decline or cancellation reported by the provider;
	// the operator may retry the same request or close the flow.
	StateRejected State = "REJECTED"
	StateError    State = "ERROR"
	// StateConfirmClose follows Success: releasing the order is a
	// deliberate, separate confirmation.
	StateConfirmClose State = "CONFIRM_CLOSE"
	StateClosed       State = "CLOSED"
)

// active reports whether an attempt is in flight. No second submission may
// start while active.
func (s State) active() bool {
	return s == StateSending || s == StateProcessing
}
