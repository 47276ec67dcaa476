package payment_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/restopay/terminalflow/internal/provider"
	"github.com/restopay/terminalflow/internal/terminal"
)

// mockProviderClient is a function-field fake of payment.ProviderClient.
type mockProviderClient struct {
	CreateIntentFn func(ctx context.Context, req provider.CreateIntentRequest) (*provider.Intent, error)
	GetIntentFn    func(ctx context.Context, intentID string) (*provider.Intent, error)
	CancelIntentFn func(ctx context.Context, intentID string) error
}

func (m *mockProviderClient) CreateIntent(ctx context.Context, req provider.CreateIntentRequest) (*provider.Intent, error) {
	return m.CreateIntentFn(ctx, req)
}

func (m *mockProviderClient) GetIntent(ctx context.Context, intentID string) (*provider.Intent, error) {
	return m.GetIntentFn(ctx, intentID)
}

func (m *mockProviderClient) CancelIntent(ctx context.Context, intentID string) error {
	if m.CancelIntentFn != nil {
		return m.CancelIntentFn(ctx, intentID)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func allowedTerminals() []terminal.Terminal {
	return []terminal.Terminal{
		{ID: "term-1", Name: "Front Counter", Enabled: true},
		{ID: "term-2", Name: "Bar", Enabled: true},
	}
}
