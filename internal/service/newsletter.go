package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
	obserrors "github.com/beranamag/berana/internal/observability/errors"
	"github.com/beranamag/berana/internal/observability/metrics"
	"github.com/beranamag/berana/internal/observability/notify"
	"github.com/beranamag/berana/internal/observability/statsd"
)

// Newsletter sentinels.
var (
	ErrAlreadySubscribed   = errors.New("email already subscribed")
	ErrUnsubscribeNotFound = errors.New("unsubscribe token not recognized")
	ErrIssueNotPublished   = errors.New("issue is not published")
	ErrBroadcastDuplicate  = errors.New("issue was already broadcast")
)

// broadcastGuardTTL keeps the per-issue broadcast lock long enough that a
// double-click or a retried request cannot announce the same issue twice.
const broadcastGuardTTL = 24 * time.Hour

// SubscriberStore is the persistence surface NewsletterService depends on.
type SubscriberStore interface {
	Create(ctx context.Context, email string) (*model.Subscriber, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	ListAll(ctx context.Context) ([]*model.Subscriber, error)
	Count(ctx context.Context) (int, error)
}

// BroadcastGuard deduplicates issue announcements across retries. The
// Redis cache repo satisfies it.
type BroadcastGuard interface {
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// BroadcastAlerter receives broadcast failure alerts. The alerter service
// satisfies it.
type BroadcastAlerter interface {
	NotifyBroadcastFailure(ctx context.Context, payload notify.BroadcastFailurePayload)
}

// NewsletterServiceOptions groups dependencies for NewsletterService.
type NewsletterServiceOptions struct {
	Subscribers SubscriberStore
	Issues      IssueStore
	Guard       BroadcastGuard
	Metrics     statsd.Sink
	Alerts      BroadcastAlerter
	Concurrency int
}

// NewsletterService manages subscriptions and announces published issues
// to the subscriber list.
type NewsletterService struct {
	subscribers SubscriberStore
	issues      IssueStore
	guard       BroadcastGuard
	metrics     statsd.Sink
	alerts      BroadcastAlerter
	concurrency int
}

// NewNewsletterService constructs a new NewsletterService.
func NewNewsletterService(opts NewsletterServiceOptions) *NewsletterService {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 8
	}
	return &NewsletterService{
		subscribers: opts.Subscribers,
		issues:      opts.Issues,
		guard:       opts.Guard,
		metrics:     opts.Metrics,
		alerts:      opts.Alerts,
		concurrency: concurrency,
	}
}

// Subscribe adds an email to the newsletter list.
func (s *NewsletterService) Subscribe(ctx context.Context, req *model.SubscribeRequest) (*model.Subscriber, error) {
	if req == nil {
		return nil, errors.New("subscribe request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.subscribers.Create(ctx, req.Email)
	if err != nil {
		if errors.Is(err, data.ErrAlreadySubscribed) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return sub, nil
}

// Unsubscribe removes the subscription holding the opaque token.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnsubscribeNotFound
	}
	removed, err := s.subscribers.DeleteByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if !removed {
		return ErrUnsubscribeNotFound
	}
	return nil
}

// BroadcastResult summarizes an issue announcement run.
type BroadcastResult struct {
	IssueID     string `json:"issue_id"`
	IssueNumber int    `json:"issue_number"`
	Recipients  int    `json:"recipients"`
}

// Broadcast announces a published issue to every subscriber. The fan-out
// is bounded and each announcement is logged; actual mail delivery is
// handled by an external relay watching the log stream. A Redis NX guard
// makes the operation idempotent per issue.
func (s *NewsletterService) Broadcast(ctx context.Context, issueID string) (*BroadcastResult, error) {
	start := time.Now()
	result, issue, err := s.broadcast(ctx, issueID)

	switch {
	case err == nil:
		metrics.EmitBroadcast(s.metrics, metrics.BroadcastMetric{
			Result:     metrics.ResultSuccess,
			Recipients: result.Recipients,
			Duration:   time.Since(start),
		})
	case errors.Is(err, ErrBroadcastDuplicate):
		metrics.EmitBroadcast(s.metrics, metrics.BroadcastMetric{Result: metrics.ResultNoop})
	case errors.Is(err, ErrContentNotFound), errors.Is(err, ErrIssueNotPublished):
		// Caller mistakes are not operational failures.
	default:
		metrics.EmitBroadcast(s.metrics, metrics.BroadcastMetric{
			Result:   metrics.ResultError,
			Duration: time.Since(start),
			Err:      err,
		})
		s.alertBroadcastFailure(ctx, issueID, issue, err)
	}

	return result, err
}

func (s *NewsletterService) broadcast(ctx context.Context, issueID string) (*BroadcastResult, *model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, data.ErrIssueNotFound) {
			return nil, nil, ErrContentNotFound
		}
		return nil, nil, fmt.Errorf("get issue: %w", err)
	}
	if !issue.Published {
		return nil, issue, ErrIssueNotPublished
	}

	if s.guard != nil {
		acquired, guardErr := s.guard.SetIfNotExists(ctx,
			"newsletter-broadcast:"+issue.ID, []byte("1"), broadcastGuardTTL)
		if guardErr != nil {
			return nil, issue, fmt.Errorf("broadcast guard: %w", guardErr)
		}
		if !acquired {
			return nil, issue, ErrBroadcastDuplicate
		}
	}

	subs, err := s.subscribers.ListAll(ctx)
	if err != nil {
		return nil, issue, fmt.Errorf("list subscribers: %w", err)
	}

	logger := slog.Default().With("component", "newsletter", "issue_number", issue.Number)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, sub := range subs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logger.InfoContext(gctx, "issue announcement queued",
				"subscriber_id", sub.ID,
				"unsubscribe_token", sub.UnsubscribeToken,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, issue, fmt.Errorf("broadcast fan-out: %w", err)
	}

	return &BroadcastResult{
		IssueID:     issue.ID,
		IssueNumber: issue.Number,
		Recipients:  len(subs),
	}, issue, nil
}

// alertBroadcastFailure dispatches an operational alert for a failed run.
// Broadcasts are admin-triggered and rare, so every unexpected failure is
// worth waking someone up for.
func (s *NewsletterService) alertBroadcastFailure(ctx context.Context, issueID string, issue *model.Issue, err error) {
	if s.alerts == nil {
		return
	}

	payload := notify.BroadcastFailurePayload{
		IssueID:    issueID,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityCritical,
		OccurredAt: time.Now().UTC(),
	}
	if issue != nil {
		payload.IssueID = issue.ID
		payload.IssueNumber = issue.Number
		payload.IssueTitle = issue.TitleEn
		if payload.IssueTitle == "" {
			payload.IssueTitle = issue.TitleAm
		}
	}

	s.alerts.NotifyBroadcastFailure(ctx, payload)
}
