// Package flow implements the payment flow state machine: terminal
// selection, submission, polling and the operator acknowledgments around the
// result. All operator actions and poller callbacks are serialized behind
// one mutex; each attempt is tagged with a number so a late poll result can
// never touch a flow that has moved on.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/payment"
	"github.com/restopay/terminalflow/internal/terminal"
)

// PaymentService is the contract the controller needs from the payments
// layer.
type PaymentService interface {
	Submit(ctx context.Context, req payment.Request, allowed []terminal.Terminal) (payment.IntentHandle, error)
	PollUntilTerminal(ctx context.Context, handle payment.IntentHandle, onProgress payment.ProgressFunc) (payment.Outcome, error)
	Abort(ctx context.Context, handle payment.IntentHandle) error
}

// Snapshot is the read model the UI renders. It is safe to re-render the
// latest snapshot at any time.
type Snapshot struct {
	FlowID             string              `json:"flow_id"`
	State              State               `json:"state"`
	Message            string              `json:"message"`
	ElapsedSeconds     int                 `json:"elapsed_seconds"`
	Terminals          []terminal.Terminal `json:"terminals"`
	SelectedTerminalID string              `json:"selected_terminal_id,omitempty"`
	Outcome            *payment.Outcome    `json:"outcome,omitempty"`
	Success            bool                `json:"success"`
}

const (
	msgSelectTerminal = "select a terminal"
	msgNoTerminals    = "no terminals available"
	msgSending        = "sending payment to terminal"
	msgProcessing     = "waiting for the terminal"
	msgApproved       = "payment approved"
	msgConfirmClose   = "confirm closing the order"
	msgClosed         = "flow closed"
)

type Controller struct {
	id       string
	payments PaymentService
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu            sync.Mutex
	state         State
	terminals     []terminal.Terminal
	selected      *terminal.Terminal
	request       *payment.Request
	handle        *payment.IntentHandle
	outcome       *payment.Outcome
	message       string
	elapsed       int
	attempt       int
	cancelAttempt context.CancelFunc

	// onChange, when set, is invoked with a fresh snapshot after every
	// observable transition. It runs with the controller lock held and
	// must not call back into the controller.
	onChange func(Snapshot)
}

func NewController(id string, terminals []terminal.Terminal, payments PaymentService, m *metrics.Metrics, logger *slog.Logger) *Controller {
	c := &Controller{
		id:        id,
		payments:  payments,
		metrics:   m,
		logger:    logger.With("flow_id", id),
		state:     StateSelectTerminal,
		terminals: terminals,
		message:   msgSelectTerminal,
	}
	if len(terminals) == 0 {
		c.message = msgNoTerminals
	}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) SetOnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SelectTerminal validates the operator's choice against the snapshot of
// enabled terminals taken when the flow was opened.
func (c *Controller) SelectTerminal(terminalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSelectTerminal {
		return newInvalidAction(c.state, "select")
	}

	for i := range c.terminals {
		if c.terminals[i].ID == terminalID {
			c.selected = &c.terminals[i]
			c.state = StateInitial
			c.message = fmt.Sprintf("ready to send payment to %s", c.selected.Name)
			c.notifyLocked()
			return nil
		}
	}

	return ErrUnknownTerminal
}

// Back discards the terminal choice and returns to selection.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInitial {
		return newInvalidAction(c.state, "back")
	}

	c.selected = nil
	c.state = StateSelectTerminal
	c.message = msgSelectTerminal
	if len(c.terminals) == 0 {
		c.message = msgNoTerminals
	}
	c.notifyLocked()
	return nil
}

// Start builds the payment request and begins the first attempt.
func (c *Controller) Start(amountCents int64, description, externalReference string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInitial {
		return newInvalidAction(c.state, "start")
	}

	req := payment.Request{
		AmountCents:       amountCents,
		Description:       description,
		ExternalReference: externalReference,
		TerminalID:        c.selected.ID,
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid payment request: %w", err)
	}

	c.request = &req
	c.beginAttemptLocked()
	return nil
}

// Retry re-enters Sending with the same terminal and amount, producing a
// new, independent intent. Deliberately skips re-selection and
// re-confirmation: declines are common and expected.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRejected {
		return newInvalidAction(c.state, "retry")
	}

	c.beginAttemptLocked()
	return nil
}

// ConfirmClose acknowledges a successful payment; the order is released only
// after Finalize.
func (c *Controller) ConfirmClose() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSuccess {
		return newInvalidAction(c.state, "confirm-close")
	}

	c.state = StateConfirmClose
	c.message = msgConfirmClose
	c.notifyLocked()
	return nil
}

// Finalize closes a confirmed successful flow and reports success upward.
func (c *Controller) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfirmClose {
		return newInvalidAction(c.state, "finalize")
	}

	c.state = StateClosed
	c.message = msgClosed
	c.logger.Info("flow finalized", "payment_id", c.outcome.PaymentID)
	c.notifyLocked()
	return nil
}

// Cancel closes the flow from any non-closed state. A running attempt is
// cancelled: the poller stops issuing queries and whatever it returns is
// discarded.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return newInvalidAction(c.state, "cancel")
	}

	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}

	if c.state == StateProcessing && c.handle != nil {
		handle := *c.handle
		go func() {
			_ = c.payments.Abort(context.Background(), handle)
		}()
	}

	wasActive := c.state.active()
	c.state = StateClosed
	c.message = msgClosed
	if wasActive {
		c.metrics.IncFlowOutcome("abandoned")
	}
	c.logger.Info("flow cancelled")
	c.notifyLocked()
	return nil
}

// beginAttemptLocked starts a new attempt. Caller holds the lock and has
// verified the transition; the state guard (not a lock) prevents a second
// submission while one is in flight.
func (c *Controller) beginAttemptLocked() {
	c.attempt++
	attempt := c.attempt
	c.state = StateSending
	c.message = msgSending
	c.elapsed = 0
	c.outcome = nil
	c.handle = nil

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAttempt = cancel

	req := *c.request
	allowed := c.terminals

	c.logger.Info("attempt started",
		"attempt", attempt,
		"terminal_id", req.TerminalID,
		"amount_cents", req.AmountCents)
	c.notifyLocked()

	go c.runAttempt(ctx, attempt, req, allowed)
}

func (c *Controller) runAttempt(ctx context.Context, attempt int, req payment.Request, allowed []terminal.Terminal) {
	handle, err := c.payments.Submit(ctx, req, allowed)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.applyFailure(attempt, err)
		return
	}

	if !c.enterProcessing(attempt, handle) {
		// The flow moved on while the intent was being created; clean
		// up the orphan.
		_ = c.payments.Abort(context.Background(), handle)
		return
	}

	outcome, err := c.payments.PollUntilTerminal(ctx, handle, func(elapsedSeconds int, rawStatus string) {
		c.applyProgress(attempt, elapsedSeconds, rawStatus)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.applyFailure(attempt, err)
		return
	}

	c.applyOutcome(attempt, outcome)
}

func (c *Controller) enterProcessing(attempt int, handle payment.IntentHandle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != attempt || c.state != StateSending {
		return false
	}

	c.handle = &handle
	c.state = StateProcessing
	c.message = msgProcessing
	c.notifyLocked()
	return true
}

// applyProgress re-renders the countdown. Idempotent: repeated or stale
// reports leave the snapshot unchanged.
func (c *Controller) applyProgress(attempt, elapsedSeconds int, rawStatus string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != attempt || c.state != StateProcessing {
		return
	}
	if elapsedSeconds < c.elapsed {
		return
	}

	c.elapsed = elapsedSeconds
	c.message = fmt.Sprintf("processing on terminal (status: %s)", rawStatus)
	c.notifyLocked()
}

func (c *Controller) applyOutcome(attempt int, outcome payment.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != attempt || !c.state.active() {
		c.logger.Debug("discarding late outcome", "attempt", attempt)
		return
	}

	c.cancelAttempt = nil
	c.outcome = &outcome
	c.elapsed = 0

	switch outcome.Status {
	case payment.OutcomeApproved:
		c.state = StateSuccess
		c.message = msgApproved
		c.metrics.IncFlowOutcome("approved")
	case payment.OutcomeCancelled:
		c.state = StateRejected
		c.message = fmt.Sprintf("payment cancelled: %s", outcome.ErrorMessage)
		c.metrics.IncFlowOutcome("cancelled")
	default:
		c.state = StateRejected
		c.message = fmt.Sprintf("payment declined: %s", outcome.ErrorMessage)
		c.metrics.IncFlowOutcome("declined")
	}

	c.logger.Info("attempt resolved",
		"attempt", attempt,
		"outcome", string(outcome.Status))
	c.notifyLocked()
}

func (c *Controller) applyFailure(attempt int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != attempt || !c.state.active() {
		c.logger.Debug("discarding late failure", "attempt", attempt, "error", err)
		return
	}

	c.cancelAttempt = nil
	c.elapsed = 0
	c.state = StateError

	if attemptErr, ok := payment.IsAttemptError(err); ok {
		c.message = attemptErr.Message
	} else {
		c.message = "payment failed"
	}

	c.metrics.IncFlowOutcome("error")
	c.logger.Error("attempt failed", "attempt", attempt, "error", err)
	c.notifyLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		FlowID:         c.id,
		State:          c.state,
		Message:        c.message,
		ElapsedSeconds: c.elapsed,
		Terminals:      c.terminals,
		Outcome:        c.outcome,
		Success:        c.outcome != nil && c.outcome.Status == payment.OutcomeApproved,
	}
	if c.selected != nil {
		snap.SelectedTerminalID = c.selected.ID
	}
	return snap
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}
