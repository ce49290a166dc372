package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestBuildEventDefaults(t *testing.T) {
	client, err := NewClient(Config{
		RoutingKey: "key",
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	payload := notify.BroadcastFailurePayload{
		IssueID:     "issue-7",
		IssueNumber: 7,
		Error:       "boom",
		ErrorClass:  "err_class",
	}
	event := client.buildEvent(payload)

	section, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityCritical, section["severity"])
	assert.Equal(t, "berana", section["source"])
	assert.Equal(t, "berana", section["component"])
	assert.Contains(t, section["summary"], "issue #7")

	custom, ok := section["custom_details"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"issue_id", "issue_title", "error", "error_class"} {
		assert.Contains(t, custom, key)
	}

	dedup, _ := event["dedup_key"].(string)
	assert.Equal(t, "newsletter_broadcast:issue-7", dedup)
}

func TestSendBroadcastFailureTriggersEvent(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	require.NoError(t, err)

	err = client.SendBroadcastFailure(context.Background(), notify.BroadcastFailurePayload{
		IssueID: "issue-1",
		Error:   "boom",
	})
	require.NoError(t, err)

	assert.Equal(t, "key", received["routing_key"])
	assert.Equal(t, "trigger", received["event_action"])
}

func TestSendBroadcastFailureSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid routing key", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	require.NoError(t, err)

	err = client.SendBroadcastFailure(context.Background(), notify.BroadcastFailurePayload{Error: "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid routing key")
}
