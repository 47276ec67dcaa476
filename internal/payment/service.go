package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/restopay/terminalflow/internal/config"
	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/terminal"
)

// Service bundles the submitter and poller behind one dependency for the
// flow controller.
type Service struct {
	submitter *Submitter
	poller    *Poller
	client    ProviderClient
	logger    *slog.Logger
}

func NewService(client ProviderClient, cfg config.PollerConfig, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		submitter: NewSubmitter(client, m, logger),
		poller:    NewPoller(client, cfg, m, logger),
		client:    client,
		logger:    logger,
	}
}

func (s *Service) Submit(ctx context.Context, req Request, allowed []terminal.Terminal) (IntentHandle, error) {
	return s.submitter.Submit(ctx, req, allowed)
}

func (s *Service) PollUntilTerminal(ctx context.Context, handle IntentHandle, onProgress ProgressFunc) (Outcome, error) {
	return s.poller.PollUntilTerminal(ctx, handle, onProgress)
}

// Abort asks the provider to cancel an in-flight intent. Best effort: the
// terminal may already have resolved it, and the flow has moved on either
// way.
func (s *Service) Abort(ctx context.Context, handle IntentHandle) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.CancelIntent(ctx, handle.IntentID); err != nil {
		s.logger.Warn("failed to cancel intent",
			"intent_id", handle.IntentID,
			"error", err)
		return err
	}

	s.logger.Info("intent cancelled", "intent_id", handle.IntentID)
	return nil
}
