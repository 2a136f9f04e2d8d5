package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSenderPostsJSON(t *testing.T) {
	var (
		got       webhookPayload
		authValue string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authValue = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSender(WebhookConfig{URL: server.URL, Token: "secret"}, nil)
	err := sender.Send(context.Background(), "5321234567", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", authValue)
	assert.Equal(t, webhookPayload{To: "5321234567", Message: "hello"}, got)
}

func TestWebhookSenderReportsGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewSender(WebhookConfig{URL: server.URL}, nil).Send(context.Background(), "5321234567", "hello")
	assert.ErrorContains(t, err, "502")
}

func TestNewSenderWithoutURLIsNoop(t *testing.T) {
	sender := NewSender(WebhookConfig{}, nil)
	_, ok := sender.(*NoopSender)
	require.True(t, ok)
	assert.NoError(t, sender.Send(context.Background(), "5321234567", "hello"))
}

func TestMessageText(t *testing.T) {
	created := BookingCreated{Phone: "5321234567", Code: "482913", CustomerName: "Ayse", Date: "2026-10-19", Time: "10:00"}
	assert.Equal(t, "Dear Ayse, your appointment on 2026-10-19 at 10:00 is received. Your booking code is 482913.", created.Text())

	cancelled := BookingStatus{Code: "482913", CustomerName: "Ayse", Date: "2026-10-19", Time: "10:00", Status: "CANCELLED"}
	assert.Contains(t, cancelled.Text(), "has been cancelled")
}
