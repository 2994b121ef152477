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
)

// DefaultTimeout bounds each delivery attempt.
const DefaultTimeout = 10 * time.Second

// Webhook posts {"text": msg} to a chat webhook. Only HTTP 200 counts as delivered.
type Webhook struct {
	url  string
	http *http.Client
}

// NewWebhook returns a webhook sink. A blank url makes Send return ErrNotConfigured.
func NewWebhook(url string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Webhook{url: strings.TrimSpace(url), http: client}
}

// Name implements Sink.
func (w *Webhook) Name() string { return "webhook" }

// Send implements Sink.
func (w *Webhook) Send(ctx context.Context, msg string) error {
	if w.url == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: msg})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: webhook status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	return nil
}
