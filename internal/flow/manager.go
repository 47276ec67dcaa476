package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/restopay/terminalflow/internal/metrics"
	"github.com/restopay/terminalflow/internal/terminal"
)

// TerminalLister supplies the enabled-terminal snapshot a new flow is built
// on.
type TerminalLister interface {
	ListEnabled(ctx context.Context) ([]terminal.Terminal, error)
}

// Manager owns the set of flows for this service instance and enforces the
// one-active-flow rule.
type Manager struct {
	directory TerminalLister
	payments  PaymentService
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mu    sync.Mutex
	flows map[string]*Controller
}

func NewManager(directory TerminalLister, payments PaymentService, m *metrics.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		directory: directory,
		payments:  payments,
		metrics:   m,
		logger:    logger,
		flows:     make(map[string]*Controller),
	}
}

// Open creates a new flow with a snapshot of the terminals enabled right
// now. Terminal enablement changes made later do not affect a flow already
// open.
func (m *Manager) Open(ctx context.Context) (*Controller, error) {
	terminals, err := m.directory.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminals: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, flow := range m.flows {
		if flow.Snapshot().State == StateClosed {
			delete(m.flows, id)
			continue
		}
		return nil, ErrFlowActive
	}

	id := uuid.NewString()
	flow := NewController(id, terminals, m.payments, m.metrics, m.logger)
	m.flows[id] = flow

	m.metrics.IncFlowStarted()
	m.logger.Info("flow opened", "flow_id", id, "terminals", len(terminals))
	return flow, nil
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flow, ok := m.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}
