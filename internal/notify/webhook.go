package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"
)

const (
	webhookTimeout  = 10 * time.Second
	maxErrorBodyLen = 512

	runIDHeader = "X-Deltapurge-Run"
)

type webhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func NewWebhook(url string, headers map[string]string) (Notifier, error) {
	return NewWebhookWithClient(url, headers, &http.Client{Timeout: webhookTimeout})
}

// NewWebhookWithClient is NewWebhook with a caller-supplied HTTP client.
func NewWebhookWithClient(url string, headers map[string]string, client *http.Client) (Notifier, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return nil, fmt.Errorf("config.url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &webhookNotifier{
		url:     trimmedURL,
		headers: maps.Clone(headers),
		client:  client,
	}, nil
}

func (w *webhookNotifier) Notify(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RunID != "" {
		req.Header.Set(runIDHeader, event.RunID)
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			return fmt.Errorf("received non-success status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("received non-success status: %s", resp.Status)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
