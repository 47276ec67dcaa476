package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/restopay/terminalflow/internal/config"
)

// API is the surface of the payment provider used by this service: intent
// lifecycle plus the terminal directory listing.
type API interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	ListTerminals(ctx context.Context) ([]Terminal, error)
}

type HTTPClient struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(cfg config.ProviderConfig, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		secret:  cfg.APISecret,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
		logger: logger,
	}
}

func (c *HTTPClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	endpoint := fmt.Sprintf("%s/v1/payment-intents", c.baseURL)
	return sendRequest[CreateIntentRequest, Intent](c, ctx, http.MethodPost, endpoint, &req)
}

func (c *HTTPClient) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	endpoint := fmt.Sprintf("%s/v1/payment-intents/%s", c.baseURL, url.PathEscape(intentID))
	return sendRequest[any, Intent](c, ctx, http.MethodGet, endpoint, nil)
}

func (c *HTTPClient) CancelIntent(ctx context.Context, intentID string) error {
	endpoint := fmt.Sprintf("%s/v1/payment-intents/%s/cancel", c.baseURL, url.PathEscape(intentID))
	_, err := sendRequest[any, Intent](c, ctx, http.MethodPost, endpoint, nil)
	return err
}

func (c *HTTPClient) ListTerminals(ctx context.Context) ([]Terminal, error) {
	endpoint := fmt.Sprintf("%s/v1/terminals", c.baseURL)
	resp, err := sendRequest[any, []Terminal](c, ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, endpoint string, reqBody *Req) (*Resp, error) {
	if c.secret == "" {
		c.logger.Error("provider call refused", "method", method, "endpoint", endpoint, "has_credential", false)
		return nil, ErrMissingCredential
	}

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &Error{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var provResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&provResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &provResp, nil
}
