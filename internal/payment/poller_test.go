package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restopay/terminalflow/internal/config"
	"github.com/restopay/terminalflow/internal/payment"
	"github.com/restopay/terminalflow/internal/provider"
)

func testHandle() payment.IntentHandle {
	return payment.IntentHandle{IntentID: "intent-1", TerminalID: "term-1"}
}

// scriptedClient returns the queued responses in order, repeating the last
// one once the script runs out.
func scriptedClient(script ...func() (*provider.Intent, error)) *mockProviderClient {
	i := 0
	return &mockProviderClient{
		GetIntentFn: func(ctx context.Context, intentID string) (*provider.Intent, error) {
			step := script[i]
			if i < len(script)-1 {
				i++
			}
			return step()
		},
	}
}

func intentWith(status, reason string) func() (*provider.Intent, error) {
	return func() (*provider.Intent, error) {
		return &provider.Intent{ID: "intent-1", Status: status, StatusReason: reason}, nil
	}
}

func newTestPoller(client *mockProviderClient, cfg config.PollerConfig) *payment.Poller {
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Millisecond
	}
	if cfg.Ceiling == 0 {
		cfg.Ceiling = time.Second
	}
	return payment.NewPoller(client, cfg, nil, testLogger())
}

func TestPoller_ApprovedAfterPending(t *testing.T) {
	client := scriptedClient(
		intentWith(provider.IntentStatusCreated, ""),
		intentWith(provider.IntentStatusPending, ""),
		intentWith(provider.IntentStatusPending, ""),
		intentWith(provider.IntentStatusFinished, ""),
	)

	var statuses []string
	var elapsed []int

	poller := newTestPoller(client, config.PollerConfig{})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), func(elapsedSeconds int, rawStatus string) {
		elapsed = append(elapsed, elapsedSeconds)
		statuses = append(statuses, rawStatus)
	})

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeApproved, outcome.Status)
	assert.Equal(t, "intent-1", outcome.PaymentID)

	require.Len(t, statuses, 4)
	assert.Equal(t, provider.IntentStatusCreated, statuses[0])
	assert.Equal(t, provider.IntentStatusFinished, statuses[3])

	for i := 1; i < len(elapsed); i++ {
		assert.GreaterOrEqual(t, elapsed[i], elapsed[i-1], "elapsed seconds must not go backwards")
	}
}

func TestPoller_RejectedCarriesProviderReason(t *testing.T) {
	client := scriptedClient(
		intentWith(provider.IntentStatusPending, ""),
		intentWith(provider.IntentStatusError, "insufficient funds"),
	)

	poller := newTestPoller(client, config.PollerConfig{})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeRejected, outcome.Status)
	assert.Equal(t, "insufficient funds", outcome.ErrorMessage)
}

func TestPoller_RejectedWithoutReasonGetsDefault(t *testing.T) {
	client := scriptedClient(intentWith(provider.IntentStatusExpired, ""))

	poller := newTestPoller(client, config.PollerConfig{})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeRejected, outcome.Status)
	assert.Equal(t, "payment was rejected by the terminal", outcome.ErrorMessage)
}

func TestPoller_CancelledOnTerminal(t *testing.T) {
	client := scriptedClient(intentWith(provider.IntentStatusCanceled, ""))

	poller := newTestPoller(client, config.PollerConfig{})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeCancelled, outcome.Status)
	assert.Equal(t, "payment was cancelled", outcome.ErrorMessage)
}

func TestPoller_TimeoutAtCeiling(t *testing.T) {
	client := scriptedClient(intentWith(provider.IntentStatusPending, ""))

	poller := newTestPoller(client, config.PollerConfig{
		Interval: 2 * time.Millisecond,
		Ceiling:  20 * time.Millisecond,
	})

	_, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.Error(t, err)
	attemptErr, ok := payment.IsAttemptError(err)
	require.True(t, ok)
	assert.Equal(t, payment.KindTimeout, attemptErr.Kind)
	assert.Contains(t, attemptErr.Message, "may still be mid-transaction")
}

func TestPoller_ContextCancellationStopsPolling(t *testing.T) {
	calls := 0
	client := &mockProviderClient{
		GetIntentFn: func(ctx context.Context, intentID string) (*provider.Intent, error) {
			calls++
			return &provider.Intent{ID: intentID, Status: provider.IntentStatusPending}, nil
		},
	}

	poller := newTestPoller(client, config.PollerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := poller.PollUntilTerminal(ctx, testHandle(), nil)

	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)

	before := calls
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, calls, "no further queries after cancellation")
}

func TestPoller_TransportErrorIsToleratedUntilNextTick(t *testing.T) {
	client := scriptedClient(
		func() (*provider.Intent, error) { return nil, errors.New("connection reset") },
		intentWith(provider.IntentStatusFinished, ""),
	)

	poller := newTestPoller(client, config.PollerConfig{})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeApproved, outcome.Status)
}

func TestPoller_UnknownStatusFailsByDefault(t *testing.T) {
	client := scriptedClient(intentWith("SOMETHING_NEW", ""))

	poller := newTestPoller(client, config.PollerConfig{})

	_, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.Error(t, err)
	attemptErr, ok := payment.IsAttemptError(err)
	require.True(t, ok)
	assert.Equal(t, payment.KindUnexpectedStatus, attemptErr.Kind)
}

func TestPoller_UnknownStatusTransientWhenConfigured(t *testing.T) {
	client := scriptedClient(
		intentWith("SOMETHING_NEW", ""),
		intentWith(provider.IntentStatusFinished, ""),
	)

	poller := newTestPoller(client, config.PollerConfig{
		TreatUnknownAsTransient: true,
	})

	outcome, err := poller.PollUntilTerminal(context.Background(), testHandle(), nil)

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeApproved, outcome.Status)
}
