package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#berana-alerts",
		Username:   "bot",
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.BroadcastFailurePayload{
		IssueID:     "issue-1",
		IssueNumber: 4,
		IssueTitle:  "First Light",
		Recipients:  120,
		Error:       "boom",
		ErrorClass:  "test_error",
	})

	assert.Equal(t, "bot", msg["username"])
	assert.Equal(t, "#berana-alerts", msg["channel"])

	text, ok := msg["text"].(string)
	require.True(t, ok)
	for _, want := range []string{
		"Newsletter broadcast failed", "issue #4", "issue-1",
		"First Light", "120", "boom", "test_error", "critical",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatMessageIssueLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:     "https://hooks.slack.com/services/test",
		IssueURLPrefix: "https://admin.berana.local/issues",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.BroadcastFailurePayload{IssueID: "issue-123"})

	text, ok := msg["text"].(string)
	require.True(t, ok)
	assert.Contains(t, text, "<https://admin.berana.local/issues/issue-123|issue-123>")
}

func TestFormatMessageEscapesTitle(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.BroadcastFailurePayload{
		IssueID:    "issue-1",
		IssueTitle: "rain & <wind>",
	})

	text, ok := msg["text"].(string)
	require.True(t, ok)
	assert.Contains(t, text, "rain &amp; &lt;wind&gt;")
}

func TestFormatIssueValuePermutations(t *testing.T) {
	tcs := []struct {
		name   string
		id     string
		title  string
		prefix string
		want   string
	}{
		{
			name:   "id with link",
			id:     "issue-1",
			prefix: "https://admin.example/issues",
			want:   "<https://admin.example/issues/issue-1|issue-1>",
		},
		{
			name:   "title only",
			title:  "First Light",
			prefix: "https://admin.example/issues",
			want:   "First Light",
		},
		{
			name:   "id and title with link",
			id:     "issue-2",
			title:  "First Light",
			prefix: "https://admin.example/issues",
			want:   "<https://admin.example/issues/issue-2|First Light> (issue-2)",
		},
		{
			name:   "id and title without link",
			id:     "issue-3",
			title:  "First Light",
			prefix: "not a url",
			want:   "First Light (issue-3)",
		},
		{
			name:   "empty inputs",
			prefix: "https://admin.example/issues",
			want:   "",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Config{
				WebhookURL:     "https://hooks.slack.com/services/test",
				IssueURLPrefix: tc.prefix,
			})
			require.NoError(t, err)

			got := client.formatIssueValue(notify.BroadcastFailurePayload{
				IssueID:    tc.id,
				IssueTitle: tc.title,
			})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSendBroadcastFailurePostsWebhook(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Username: "bot"})
	require.NoError(t, err)

	err = client.SendBroadcastFailure(context.Background(), notify.BroadcastFailurePayload{
		IssueID: "issue-1",
		Error:   "boom",
	})
	require.NoError(t, err)
	assert.Equal(t, "bot", received["username"])

	text, ok := received["text"].(string)
	require.True(t, ok)
	assert.True(t, strings.Contains(text, "boom"))
}

func TestSendBroadcastFailureRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 2})
	require.NoError(t, err)

	err = client.SendBroadcastFailure(context.Background(), notify.BroadcastFailurePayload{Error: "boom"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendBroadcastFailureSurfacesWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	require.NoError(t, err)

	err = client.SendBroadcastFailure(context.Background(), notify.BroadcastFailurePayload{Error: "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
