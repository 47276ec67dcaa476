package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restopay/terminalflow/internal/flow"
	"github.com/restopay/terminalflow/internal/terminal"
)

type mockLister struct {
	ListEnabledFn func(ctx context.Context) ([]terminal.Terminal, error)
}

func (m *mockLister) ListEnabled(ctx context.Context) ([]terminal.Terminal, error) {
	return m.ListEnabledFn(ctx)
}

func staticLister(terminals []terminal.Terminal) *mockLister {
	return &mockLister{
		ListEnabledFn: func(ctx context.Context) ([]terminal.Terminal, error) {
			return terminals, nil
		},
	}
}

func TestManager_OpenSnapshotsTerminals(t *testing.T) {
	manager := flow.NewManager(staticLister(testTerminals()), &mockPayments{}, nil, testLogger())

	f, err := manager.Open(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, f.ID())
	assert.Len(t, f.Snapshot().Terminals, 2)

	got, err := manager.Get(f.ID())
	require.NoError(t, err)
	assert.Same(t, f, got)
}

func TestManager_SecondActiveFlowRejected(t *testing.T) {
	manager := flow.NewManager(staticLister(testTerminals()), &mockPayments{}, nil, testLogger())

	_, err := manager.Open(context.Background())
	require.NoError(t, err)

	_, err = manager.Open(context.Background())
	assert.ErrorIs(t, err, flow.ErrFlowActive)
}

func TestManager_ClosedFlowMakesRoom(t *testing.T) {
	manager := flow.NewManager(staticLister(testTerminals()), &mockPayments{}, nil, testLogger())

	first, err := manager.Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.Cancel())

	second, err := manager.Open(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	// Closed flows are pruned once replaced.
	_, err = manager.Get(first.ID())
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
}

func TestManager_GetUnknownFlow(t *testing.T) {
	manager := flow.NewManager(staticLister(nil), &mockPayments{}, nil, testLogger())

	_, err := manager.Get("missing")
	assert.ErrorIs(t, err, flow.ErrFlowNotFound)
}

func TestManager_DirectoryFailurePropagates(t *testing.T) {
	lister := &mockLister{
		ListEnabledFn: func(ctx context.Context) ([]terminal.Terminal, error) {
			return nil, errors.New("connection refused")
		},
	}

	manager := flow.NewManager(lister, &mockPayments{}, nil, testLogger())

	_, err := manager.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list terminals")
}

func TestManager_EnablementChangeDoesNotAffectOpenFlow(t *testing.T) {
	terminals := testTerminals()
	lister := &mockLister{
		ListEnabledFn: func(ctx context.Context) ([]terminal.Terminal, error) {
			return terminals, nil
		},
	}

	manager := flow.NewManager(lister, &mockPayments{}, nil, testLogger())

	f, err := manager.Open(context.Background())
	require.NoError(t, err)

	terminals = nil

	assert.Len(t, f.Snapshot().Terminals, 2)
	require.NoError(t, f.SelectTerminal("term-1"))
}
