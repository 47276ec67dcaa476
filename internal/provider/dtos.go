package provider

import "time"

// Intent statuses as reported by the provider. CREATED and PENDING are
// in-flight; the rest are terminal.
const (
	IntentStatusCreated  = "CREATED"
	IntentStatusPending  = "PENDING"
	IntentStatusFinished = "FINISHED"
	IntentStatusCanceled = "CANCELED"
	IntentStatusError    = "ERROR"
	IntentStatusExpired  = "EXPIRED"
)

type CreateIntentRequest struct {
	AmountCents       int64  `json:"amount_cents"`
	Description       string `json:"description"`
	ExternalReference string `json:"external_reference"`
	TerminalID        string `json:"terminal_id"`
}

type Intent struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	StatusReason      string    `json:"status_reason,omitempty"`
	AmountCents       int64     `json:"amount_cents"`
	ExternalReference string    `json:"external_reference"`
	TerminalID        string    `json:"terminal_id"`
	CreatedAt         time.Time `json:"created_at"`
}

type Terminal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}
