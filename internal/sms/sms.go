package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Sender delivers one text message. Implementations wrap whichever provider
// the deployment uses.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// HTTPSender posts messages to a JSON SMS-provider API.
type HTTPSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewHTTPSender(apiURL, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSender) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{
		"from": s.from,
		"to":   to,
		"body": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms: provider returned status %d", resp.StatusCode)
	}

	return nil
}

// LogSender writes messages to the log instead of sending them. Used in
// development and tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.Logger.Info("sms send", slog.Group("sms", "to", to, "body", body))
	return nil
}
