package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beranamag/berana/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL     string
	Channel        string
	Username       string
	Timeout        time.Duration
	RetryLimit     int
	Client         *http.Client
	IssueURLPrefix string
}

// Client delivers broadcast failure alerts to a Slack webhook.
type Client struct {
	webhookURL     string
	channel        string
	username       string
	retryLimit     int
	issueURLPrefix string
	client         *http.Client
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	retries := max(cfg.RetryLimit, 0)

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		webhookURL:     webhookURL,
		channel:        strings.TrimSpace(cfg.Channel),
		username:       fallbackString(strings.TrimSpace(cfg.Username), "berana"),
		retryLimit:     retries,
		issueURLPrefix: strings.TrimSpace(cfg.IssueURLPrefix),
		client:         hc,
	}, nil
}

// SendBroadcastFailure posts a formatted message to Slack.
func (c *Client) SendBroadcastFailure(ctx context.Context, payload notify.BroadcastFailurePayload) error {
	msg := c.formatMessage(payload)
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			// Linear backoff keeps retries from stampeding the webhook.
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	return lastErr
}

func (c *Client) formatMessage(payload notify.BroadcastFailurePayload) map[string]any {
	timestamp := payload.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	text := strings.Builder{}
	writeHeader(&text, payload)
	appendField(&text, "Severity", fallbackString(payload.Severity, notify.SeverityCritical))
	appendField(&text, "Issue", c.formatIssueValue(payload))
	if payload.Recipients > 0 {
		appendField(&text, "Recipients", strconv.Itoa(payload.Recipients))
	}
	appendField(&text, "Error class", payload.ErrorClass)
	appendField(&text, "Error", payload.Error)
	appendMetadata(&text, payload.Metadata)
	text.WriteString("• Timestamp: ")
	text.WriteString(timestamp.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func writeHeader(text *strings.Builder, payload notify.BroadcastFailurePayload) {
	text.WriteString("*Newsletter broadcast failed*")
	if payload.IssueNumber > 0 {
		fmt.Fprintf(text, " issue #%d", payload.IssueNumber)
	}
	text.WriteByte('\n')
}

// formatIssueValue renders the issue as a back-office link when a URL prefix
// is configured, falling back to plain text.
func (c *Client) formatIssueValue(payload notify.BroadcastFailurePayload) string {
	rawID := strings.TrimSpace(payload.IssueID)
	title := escapeText(strings.TrimSpace(payload.IssueTitle))
	id := escapeText(rawID)

	if id == "" && title == "" {
		return ""
	}

	link := ""
	if rawID != "" {
		link = c.buildIssueLink(rawID)
	}

	switch {
	case link != "" && title != "":
		return fmt.Sprintf("<%s|%s> (%s)", link, title, id)
	case link != "":
		return fmt.Sprintf("<%s|%s>", link, id)
	case title != "" && id != "":
		return fmt.Sprintf("%s (%s)", title, id)
	case title != "":
		return title
	default:
		return id
	}
}

func escapeText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func (c *Client) buildIssueLink(issueID string) string {
	prefix := c.issueURLPrefix
	if prefix == "" {
		return ""
	}

	u, err := url.Parse(prefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	link, err := url.JoinPath(u.String(), issueID)
	if err != nil {
		return ""
	}
	return link
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResponse(resp)
	}
	return drainAndClose(resp)
}

func drainAndClose(resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		if closeErr := resp.Body.Close(); closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain slack response body: %w", err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain slack response body: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

func errorResponse(resp *http.Response) error {
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		if closeErr := resp.Body.Close(); closeErr != nil {
			return errors.Join(
				fmt.Errorf("read slack error response: %w", readErr),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("read slack error response: %w", readErr)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
}

func appendField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

func appendMetadata(text *strings.Builder, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}
	text.WriteString("• Metadata:\n")
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text.WriteString("    • ")
		text.WriteString(k)
		text.WriteString(": ")
		text.WriteString(metadata[k])
		text.WriteByte('\n')
	}
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
