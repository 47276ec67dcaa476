package payment

import (
	"github.com/go-playground/validator"
)

// Request describes one payment attempt. Amounts are integer cents so they
// round-trip to the provider and back without loss.
type Request struct {
	AmountCents       int64  `json:"amount_cents" validate:"required,gt=0"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference" validate:"required"`
	TerminalID        string `json:"terminal_id" validate:"required"`
}

var validate = validator.New()

func (r Request) Validate() error {
	return validate.Struct(r)
}

// IntentHandle identifies a provider-side payment intent created by a
// submission. It is all the poller needs.
type IntentHandle struct {
	IntentID   string
	TerminalID string
}

type OutcomeStatus string

const (
	OutcomeApproved  OutcomeStatus = "APPROVED"
	OutcomeRejected  OutcomeStatus = "REJECTED"
	OutcomeCancelled OutcomeStatus = "CANCELLED"
)

// Outcome is the terminal result of one attempt, consumed exactly once by
// the flow controller.
type Outcome struct {
	Status       OutcomeStatus `json:"status"`
	PaymentID    string        `json:"payment_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
