package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/restopay/terminalflow/internal/config"
)

// RetryClient retries idempotent provider calls (status reads, directory
// listing, cancellation) with exponential backoff. Intent creation is passed
// through untouched: a submission is never retried behind the operator's back.
type RetryClient struct {
	inner      API
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner API, cfg config.RetryConfig) API {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: cfg.MaxRetries,
	}
}

func (r *RetryClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	return r.inner.CreateIntent(ctx, req)
}

func (r *RetryClient) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*Intent, error) {
			return r.inner.GetIntent(ctx, intentID)
		},
	)
}

func (r *RetryClient) CancelIntent(ctx context.Context, intentID string) error {
	_, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*struct{}, error) {
			return &struct{}{}, r.inner.CancelIntent(ctx, intentID)
		},
	)
	return err
}

func (r *RetryClient) ListTerminals(ctx context.Context) ([]Terminal, error) {
	terminals, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*[]Terminal, error) {
			list, err := r.inner.ListTerminals(ctx)
			if err != nil {
				return nil, err
			}
			return &list, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return *terminals, nil
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrMissingCredential) {
		return false
	}

	var provErr *Error
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Transport-level failures are worth another try.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(100)) * time.Millisecond

	return base + jitter
}
