package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// WebhookNotifier POSTs lead payloads to a single endpoint.
type WebhookNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// WebhookOption is a functional option for configuring the notifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// WithWebhookLogger sets a custom logger.
func WithWebhookLogger(logger *logging.Logger) WebhookOption {
	return func(n *WebhookNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewWebhookNotifier creates a notifier for endpoint. An empty endpoint
// yields a notifier whose Deliver is a no-op.
func NewWebhookNotifier(endpoint string, opts ...WebhookOption) *WebhookNotifier {
	n := &WebhookNotifier{
		endpoint: strings.TrimSpace(endpoint),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether an endpoint is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.endpoint != ""
}

// Deliver makes exactly one delivery attempt.
func (n *WebhookNotifier) Deliver(ctx context.Context, payload Payload) error {
	if !n.Enabled() {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("notify: webhook delivered", "lead_id", payload.Lead.ID, "status", resp.StatusCode)
	return nil
}
