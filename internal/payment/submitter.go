package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/provider"
	"github.com/restopay/terminalflow/internal/terminal"
)

// ProviderClient is the slice of the provider API the submitter and poller
// use.
type ProviderClient interface {
	CreateIntent(ctx context.Context, req provider.CreateIntentRequest) (*provider.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*provider.Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// Submitter pushes a payment request to a specific terminal by creating a
// provider-side payment intent.
type Submitter struct {
	client  ProviderClient
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSubmitter(client ProviderClient, m *metrics.Metrics, logger *slog.Logger) *Submitter {
	return &Submitter{
		client:  client,
		metrics: m,
		logger:  logger,
	}
}

// Submit validates the request against the terminals usable in the current
// flow and creates the intent. Failures are classified before they reach the
// caller; a submission is never retried here.
func (s *Submitter) Submit(ctx context.Context, req Request, allowed []terminal.Terminal) (IntentHandle, error) {
	if err := req.Validate(); err != nil {
		s.metrics.IncSubmission("invalid")
		return IntentHandle{}, NewProviderRejectionError("invalid payment request", err)
	}

	if !containsTerminal(allowed, req.TerminalID) {
		s.metrics.IncSubmission("invalid")
		return IntentHandle{}, NewProviderRejectionError("terminal is not available in this flow", nil)
	}

	intent, err := s.client.CreateIntent(ctx, provider.CreateIntentRequest{
		AmountCents:       req.AmountCents,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		TerminalID:        req.TerminalID,
	})
	if err != nil {
		s.metrics.IncSubmission("error")
		return IntentHandle{}, classifySubmitError(err)
	}

	s.metrics.IncSubmission("ok")
	s.logger.Info("payment intent created",
		"intent_id", intent.ID,
		"terminal_id", req.TerminalID,
		"amount_cents", req.AmountCents)

	return IntentHandle{
		IntentID:   intent.ID,
		TerminalID: req.TerminalID,
	}, nil
}

func classifySubmitError(err error) *AttemptError {
	if errors.Is(err, provider.ErrMissingCredential) {
		return NewConfigurationError(err)
	}

	if provErr, ok := provider.IsProviderError(err); ok && provErr.StatusCode < 500 {
		return NewProviderRejectionError(provErr.Message, err)
	}

	return NewCommunicationError(err)
}

func containsTerminal(terminals []terminal.Terminal, id string) bool {
	for _, t := range terminals {
		if t.ID == id {
			return true
		}
	}
	return false
}
