package alerter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/beranamag/berana/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the alerter service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service fans broadcast failure alerts out to every registered sink.
// A service with no sinks is valid and does nothing.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs an alerter.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "alerter")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{logger: logger, sinks: sinks}
}

// NotifyBroadcastFailure delivers the payload to all sinks concurrently and
// waits for them. Delivery errors are logged, never returned: alerting must
// not fail the operation it reports on.
func (s *Service) NotifyBroadcastFailure(ctx context.Context, payload notify.BroadcastFailurePayload) {
	if s == nil || len(s.sinks) == 0 {
		return
	}

	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendBroadcastFailure(ctx, payload); err != nil {
				s.logger.Error("broadcast alert delivery error",
					"sink", entry.Name,
					"issue_id", payload.IssueID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the alerter has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
