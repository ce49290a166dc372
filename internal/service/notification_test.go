package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
)

type fakeRecentRows struct {
	submissions []*model.Submission
	subscribers []*model.Subscriber

	submissionCalls int
}

func (f *fakeRecentRows) ListRecent(_ context.Context, since time.Time, _ int) ([]*model.Submission, error) {
	f.submissionCalls++
	var out []*model.Submission
	for _, s := range f.submissions {
		if !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeRecentSubscribers struct {
	subscribers []*model.Subscriber
}

func (f *fakeRecentSubscribers) ListRecent(_ context.Context, since time.Time, _ int) ([]*model.Subscriber, error) {
	var out []*model.Subscriber
	for _, s := range f.subscribers {
		if !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type memoryFeedCache struct {
	store map[string][]byte
}

func (m *memoryFeedCache) Get(_ context.Context, key string) ([]byte, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store[key], nil
}

func (m *memoryFeedCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = value
	return nil
}

func TestNotificationService_FeedMergesAndOrders(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := data.NewFixedTimeProvider(now)

	submissions := &fakeRecentRows{submissions: []*model.Submission{
		{ID: "sub-old", Kind: model.SubmissionPoem, Title: "stale", CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "sub-new", Kind: model.SubmissionArticle, Title: "fresh", CreatedAt: now.Add(-time.Hour)},
	}}
	subscribers := &fakeRecentSubscribers{subscribers: []*model.Subscriber{
		{ID: "nl-1", CreatedAt: now.Add(-30 * time.Minute)},
	}}

	svc := NewNotificationService(NotificationServiceOptions{
		Submissions:  submissions,
		Subscribers:  subscribers,
		TimeProvider: clock,
	})

	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Newest first; the 8-day-old submission is outside the window.
	assert.Equal(t, "nl-1", feed[0].RefID)
	assert.Equal(t, model.NotificationSubscriber, feed[0].Kind)
	assert.Equal(t, "sub-new", feed[1].RefID)
	assert.Contains(t, feed[1].Message, "fresh")
}

func TestNotificationService_FeedUsesCache(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submissions := &fakeRecentRows{submissions: []*model.Submission{
		{ID: "sub-1", Kind: model.SubmissionArticle, Title: "one", CreatedAt: now.Add(-time.Hour)},
	}}

	svc := NewNotificationService(NotificationServiceOptions{
		Submissions:  submissions,
		Subscribers:  &fakeRecentSubscribers{},
		Cache:        &memoryFeedCache{},
		TimeProvider: data.NewFixedTimeProvider(now),
	})

	_, err := svc.Feed(context.Background())
	require.NoError(t, err)
	feed, err := svc.Feed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, submissions.submissionCalls, "second read should come from cache")
	require.Len(t, feed, 1)
	assert.Equal(t, "sub-1", feed[0].RefID)
}
