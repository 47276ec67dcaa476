// Package proxy exposes the payment provider's API to local callers without
// handing them the credential. Requests are forwarded to the provider with
// the bearer secret injected server-side; responses come back verbatim.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/restopay/terminalflow/internal/config"
)

// forwardedHeaders is the allow-list of request headers relayed upstream.
// Everything else, Authorization in particular, is dropped.
var forwardedHeaders = []string{
	"Content-Type",
	"Accept",
	"Idempotency-Key",
	"X-Request-Id",
}

type Proxy struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg config.ProviderConfig, logger *slog.Logger) *Proxy {
	timeout := cfg.ConnTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Proxy{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secret:     cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.secret == "" {
		p.logger.Error("rejecting proxied request, credential not configured",
			"method", r.Method,
			"path", r.URL.Path,
			"has_credential", false)
		writeProxyError(w, http.StatusInternalServerError, "payment provider credential is not configured")
		return
	}

	target, err := p.targetURL(r.URL)
	if err != nil {
		writeProxyError(w, http.StatusBadGateway, "invalid upstream URL")
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		writeProxyError(w, http.StatusInternalServerError, "failed to build upstream request")
		return
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			upstream.Header.Set(name, v)
		}
	}
	upstream.Header.Set("Authorization", "Bearer "+p.secret)

	resp, err := p.httpClient.Do(upstream)
	if err != nil {
		p.logger.Error("upstream request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeProxyError(w, http.StatusInternalServerError, "could not reach the payment provider")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeProxyError(w, http.StatusInternalServerError, "could not reach the payment provider")
		return
	}

	// A non-JSON body (load balancer splash page, HTML error) is a broken
	// upstream, not a provider response.
	if !isJSONBody(body) {
		p.logger.Error("upstream returned a non-JSON body",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode)
		writeProxyError(w, http.StatusInternalServerError, "invalid response from the payment provider")
		return
	}

	p.logger.Info("proxied request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode)

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// isJSONBody accepts empty bodies (204-style responses) and any valid JSON.
func isJSONBody(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	return json.Valid(body)
}

func (p *Proxy) targetURL(u *url.URL) (string, error) {
	target := p.baseURL + u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	if _, err := url.Parse(target); err != nil {
		return "", err
	}
	return target, nil
}

func writeProxyError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
