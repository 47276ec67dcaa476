package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/restopay/terminalflow/internal/config"
	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/provider"
)

// ProgressFunc receives a progress report for every completed poll cycle.
// Elapsed seconds are non-decreasing within one attempt and start at zero.
type ProgressFunc func(elapsedSeconds int, rawStatus string)

// Poller queries an intent's status at a fixed interval until the provider
// reports a terminal state or the ceiling elapses.
type Poller struct {
	client             ProviderClient
	interval           time.Duration
	ceiling            time.Duration
	unknownIsTransient bool
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

func NewPoller(client ProviderClient, cfg config.PollerConfig, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.Ceiling == 0 {
		cfg.Ceiling = 60 * time.Second
	}

	return &Poller{
		client:             client,
		interval:           cfg.Interval,
		ceiling:            cfg.Ceiling,
		unknownIsTransient: cfg.TreatUnknownAsTransient,
		metrics:            m,
		logger:             logger,
	}
}

// PollUntilTerminal blocks until the intent reaches a terminal state, the
// ceiling elapses (KindTimeout) or ctx is cancelled (ctx.Err is returned and
// the caller discards the attempt). A poll cycle that fails at the transport
// layer is logged and retried on the next tick; it still counts against the
// ceiling.
func (p *Poller) PollUntilTerminal(ctx context.Context, handle IntentHandle, onProgress ProgressFunc) (Outcome, error) {
	start := time.Now()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}

		elapsed := time.Since(start)
		if elapsed >= p.ceiling {
			p.logger.Warn("polling ceiling reached",
				"intent_id", handle.IntentID,
				"elapsed", elapsed)
			return Outcome{}, NewTimeoutError(int(elapsed.Seconds()))
		}

		intent, err := p.client.GetIntent(ctx, handle.IntentID)
		p.metrics.IncPollQuery()
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			p.logger.Warn("poll query failed",
				"intent_id", handle.IntentID,
				"error", err)
			continue
		}

		if onProgress != nil {
			onProgress(int(elapsed.Seconds()), intent.Status)
		}

		switch intent.Status {
		case provider.IntentStatusCreated, provider.IntentStatusPending:
			continue

		case provider.IntentStatusFinished:
			return Outcome{
				Status:    OutcomeApproved,
				PaymentID: intent.ID,
			}, nil

		case provider.IntentStatusCanceled:
			return Outcome{
				Status:       OutcomeCancelled,
				PaymentID:    intent.ID,
				ErrorMessage: reasonOrDefault(intent, "payment was cancelled"),
			}, nil

		case provider.IntentStatusError, provider.IntentStatusExpired:
			return Outcome{
				Status:       OutcomeRejected,
				PaymentID:    intent.ID,
				ErrorMessage: reasonOrDefault(intent, "payment was rejected by the terminal"),
			}, nil

		default:
			if p.unknownIsTransient {
				p.logger.Warn("unrecognized intent status, continuing to poll",
					"intent_id", handle.IntentID,
					"status", intent.Status)
				continue
			}
			return Outcome{}, NewUnexpectedStatusError(intent.Status)
		}
	}
}

func reasonOrDefault(intent *provider.Intent, fallback string) string {
	if intent.StatusReason != "" {
		return intent.StatusReason
	}
	return fallback
}
