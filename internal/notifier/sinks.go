package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kreciklabs/krecik/internal/httputil"
	"github.com/kreciklabs/krecik/internal/resilience"
)

// StdoutSink writes the message to an io.Writer (stdout in practice) — the
// trivial collaborator-grade sink used for local runs and tests.
type StdoutSink struct {
	Writer io.Writer
}

func (s StdoutSink) Send(_ context.Context, message string) error {
	_, err := fmt.Fprintln(s.Writer, message)
	return err
}

// WebhookSink POSTs the message as JSON to a configured URL, wrapped with a
// circuit breaker and bounded retry so a flaky chat/webhook endpoint never
// corrupts the Gateway's "send at most one message per content change"
// invariant: on failure the caller (Gateway.Notify) does not advance the
// state file, so the next run retries with the same canonical message.
type WebhookSink struct {
	URL         string
	Client      *http.Client
	Breaker     *resilience.CircuitBreaker
	RetryConfig resilience.RetryConfig
}

// NewWebhookSink returns a WebhookSink with a default client, circuit
// breaker, and retry policy.
func NewWebhookSink(url string) *WebhookSink {
	client := httputil.CopyHTTPClientWithTimeout(&http.Client{Transport: httputil.DefaultTransportWithMinTLS12()}, 10*time.Second, false)
	return &WebhookSink{
		URL:         url,
		Client:      client,
		Breaker:     resilience.New(resilience.DefaultConfig()),
		RetryConfig: resilience.DefaultRetryConfig(),
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (w *WebhookSink) Send(ctx context.Context, message string) error {
	return w.Breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, w.RetryConfig, func() error {
			return w.post(ctx, message)
		})
	})
}

func (w *WebhookSink) post(ctx context.Context, message string) error {
	body, err := json.Marshal(webhookPayload{Text: message})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
