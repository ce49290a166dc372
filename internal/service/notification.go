package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

const (
	// notificationWindow bounds how far back the synthesized feed reaches.
	notificationWindow = 7 * 24 * time.Hour
	// notificationCacheTTL keeps feed reads from hammering Postgres while
	// editors poll the back office.
	notificationCacheTTL = 30 * time.Second
	notificationCacheKey = "notifications:feed"
	notificationLimit    = 50
)

// RecentSubmissionLister and RecentSubscriberLister are the row streams
// the feed is synthesized from. The data repos satisfy them.
type RecentSubmissionLister interface {
	ListRecent(ctx context.Context, since time.Time, limit int) ([]*model.Submission, error)
}

// RecentSubscriberLister lists subscribers created after a cutoff.
type RecentSubscriberLister interface {
	ListRecent(ctx context.Context, since time.Time, limit int) ([]*model.Subscriber, error)
}

// FeedCache is the caching surface the feed uses. The Redis cache repo
// satisfies it.
type FeedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NotificationServiceOptions groups dependencies for NotificationService.
type NotificationServiceOptions struct {
	Submissions  RecentSubmissionLister
	Subscribers  RecentSubscriberLister
	Cache        FeedCache
	TimeProvider data.TimeProvider
}

// NotificationService synthesizes the back-office notification feed from
// recent submissions and subscribers. Nothing is persisted: the feed is a
// read-time projection, so there is no unread state and no cleanup job.
type NotificationService struct {
	submissions  RecentSubmissionLister
	subscribers  RecentSubscriberLister
	cache        FeedCache
	timeProvider data.TimeProvider
}

// NewNotificationService constructs a new NotificationService.
func NewNotificationService(opts NotificationServiceOptions) *NotificationService {
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	return &NotificationService{
		submissions:  opts.Submissions,
		subscribers:  opts.Subscribers,
		cache:        opts.Cache,
		timeProvider: tp,
	}
}

// Feed returns recent notifications, newest first. Results are cached for
// a short window; a cache failure falls through to a live read.
func (s *NotificationService) Feed(ctx context.Context) ([]model.Notification, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, notificationCacheKey); err == nil && raw != nil {
			var cached []model.Notification
			if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
				return cached, nil
			}
		}
	}

	feed, err := s.synthesize(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, marshalErr := json.Marshal(feed); marshalErr == nil {
			if cacheErr := s.cache.Set(ctx, notificationCacheKey, raw, notificationCacheTTL); cacheErr != nil {
				slog.WarnContext(ctx, "notification feed cache write failed", "err", cacheErr)
			}
		}
	}
	return feed, nil
}

func (s *NotificationService) synthesize(ctx context.Context) ([]model.Notification, error) {
	since := s.timeProvider.Now().UTC().Add(-notificationWindow)

	submissions, err := s.submissions.ListRecent(ctx, since, notificationLimit)
	if err != nil {
		return nil, fmt.Errorf("recent submissions: %w", err)
	}
	subscribers, err := s.subscribers.ListRecent(ctx, since, notificationLimit)
	if err != nil {
		return nil, fmt.Errorf("recent subscribers: %w", err)
	}

	feed := make([]model.Notification, 0, len(submissions)+len(subscribers))
	for _, sub := range submissions {
		feed = append(feed, model.Notification{
			Kind:      model.NotificationSubmission,
			RefID:     sub.ID,
			Message:   fmt.Sprintf("new %s submission: %s", sub.Kind, sub.Title),
			CreatedAt: sub.CreatedAt,
		})
	}
	for _, sub := range subscribers {
		feed = append(feed, model.Notification{
			Kind:      model.NotificationSubscriber,
			RefID:     sub.ID,
			Message:   "new newsletter subscriber",
			CreatedAt: sub.CreatedAt,
		})
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > notificationLimit {
		feed = feed[:notificationLimit]
	}
	return feed, nil
}
