package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one SMS.
type Sender interface {
	Send(ctx context.Context, phone, body string) error
}

// WebhookConfig configures the HTTP SMS gateway.
type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WebhookSender posts messages as JSON to an SMS gateway.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

// NewSender returns a WebhookSender when a URL is configured and a NoopSender otherwise.
func NewSender(cfg WebhookConfig, logger *zap.Logger) Sender {
	if cfg.URL == "" {
		return NewNoopSender(logger)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    cfg.URL,
		token:  cfg.Token,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *WebhookSender) Send(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(webhookPayload{To: phone, Message: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// NoopSender logs messages instead of sending them.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender builds a NoopSender.
func NewNoopSender(logger *zap.Logger) *NoopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(_ context.Context, phone, body string) error {
	s.logger.Info("sms delivery disabled, dropping message", zap.String("phone", maskPhone(phone)), zap.Int("length", len(body)))
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "******" + phone[len(phone)-4:]
}
