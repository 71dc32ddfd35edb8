package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acegrowth/ace-chatbot/internal/leads"
	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

func testLead(t *testing.T) leads.Lead {
	t.Helper()
	lead, err := leads.New(leads.Fields{
		Name:    "Jane Doe",
		Phone:   "555-222-9999",
		Email:   "jane@x.com",
		Service: "Roofing",
	}, leads.ClientMeta{Page: "https://acme.test/contact", UserAgent: "Mozilla/5.0"}, time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	return lead
}

func TestWebhookNotifier_DeliversPayload(t *testing.T) {
	var body []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, WithWebhookLogger(logging.New("error")))
	lead := testLead(t)
	now := time.Date(2025, 5, 1, 12, 0, 1, 0, time.UTC)
	require.NoError(t, n.Deliver(context.Background(), NewPayload("1.0.0", "Acme Roofing", lead, now)))

	assert.Equal(t, "application/json", contentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ace-chatbot", got["source"])
	assert.Equal(t, "1.0.0", got["version"])
	assert.Equal(t, "2025-05-01T12:00:01Z", got["timestamp"])
	assert.Equal(t, "Acme Roofing", got["company"])

	leadJSON, ok := got["lead"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"id", "name", "phone", "email", "service", "description", "timestamp", "afterHours", "page", "userAgent"} {
		assert.Contains(t, leadJSON, key)
	}
	assert.Equal(t, lead.ID, leadJSON["id"])
	assert.Equal(t, "Mozilla/5.0", leadJSON["userAgent"])
	assert.Equal(t, false, leadJSON["afterHours"])
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Deliver(context.Background(), NewPayload("1.0.0", "Acme", testLead(t), time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifier_SingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	_ = n.Deliver(context.Background(), NewPayload("1.0.0", "Acme", testLead(t), time.Now()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookNotifier_NoEndpointIsNoop(t *testing.T) {
	n := NewWebhookNotifier("   ")
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Deliver(context.Background(), NewPayload("1.0.0", "Acme", testLead(t), time.Now())))
}

func TestWebhookNotifier_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewWebhookNotifier(url, WithHTTPClient(&http.Client{Timeout: time.Second}))
	assert.Error(t, n.Deliver(context.Background(), NewPayload("1.0.0", "Acme", testLead(t), time.Now())))
}
