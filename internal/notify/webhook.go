package notify

import (
	"bytes"         // Request bodies
	"context"       // Context for cancellation
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Error wrapping
	"net/http"      // HTTP client and status codes
	"time"          // Time durations

	"artisanhub/internal/metrics" // Prometheus collectors

	"github.com/cenkalti/backoff/v4" // Retry with exponential backoff
)

// WebhookSink posts events as JSON to a Zapier catch hook
type WebhookSink struct {
	url        string
	client     *http.Client
	maxRetries uint64
	initial    time.Duration
}

// NewWebhookSink retries 5xx and network errors up to maxRetries times
func NewWebhookSink(url string, client *http.Client, maxRetries uint64, initial time.Duration) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{url: url, client: client, maxRetries: maxRetries, initial: initial}
}

// Name identifies the sink in logs and metrics
func (w *WebhookSink) Name() string { return "zapier" }

// Send posts ev, retrying transient failures with exponential backoff
func (w *WebhookSink) Send(ctx context.Context, ev Event) (err error) {
	defer func() { metrics.Notifications.WithLabelValues(w.Name(), ev.Type, metrics.Outcome(err)).Inc() }()

	body, err := json.Marshal(ev) // Envelope is encoded once for every attempt
	if err != nil {
		return err
	}
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json") // Zapier parses JSON bodies
		resp, err := w.client.Do(req)
		if err != nil {
			return err // Network errors are retried
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("webhook status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("webhook status %d", resp.StatusCode)) // Client errors will not improve
		}
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initial // First wait between attempts
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, w.maxRetries), ctx))
}
