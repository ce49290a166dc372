package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
)

// BroadcastFailurePayload is the canonical data emitted when an issue
// announcement fails. Broadcasts are admin-triggered and rare, so a failed
// one is always worth an alert.
type BroadcastFailurePayload struct {
	IssueID     string
	IssueNumber int
	IssueTitle  string
	Recipients  int
	Error       string
	ErrorClass  string
	Severity    string
	OccurredAt  time.Time
	Metadata    map[string]string
}

// Sink is a destination capable of consuming broadcast failure alerts.
type Sink interface {
	SendBroadcastFailure(ctx context.Context, payload BroadcastFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload BroadcastFailurePayload) error

// SendBroadcastFailure implements the Sink interface.
func (f SinkFunc) SendBroadcastFailure(ctx context.Context, payload BroadcastFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
