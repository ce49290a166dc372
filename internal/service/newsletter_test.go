package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/observability/notify"
)

type fakeSubscriberStore struct {
	byEmail map[string]*model.Subscriber
}

func newFakeSubscriberStore() *fakeSubscriberStore {
	return &fakeSubscriberStore{byEmail: make(map[string]*model.Subscriber)}
}

func (f *fakeSubscriberStore) Create(_ context.Context, email string) (*model.Subscriber, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, data.ErrAlreadySubscribed
	}
	sub := &model.Subscriber{
		ID:               uuid.NewString(),
		Email:            email,
		Confirmed:        true,
		UnsubscribeToken: uuid.NewString(),
		CreatedAt:        time.Now(),
	}
	f.byEmail[email] = sub
	return sub, nil
}

func (f *fakeSubscriberStore) DeleteByToken(_ context.Context, token string) (bool, error) {
	for email, sub := range f.byEmail {
		if sub.UnsubscribeToken == token {
			delete(f.byEmail, email)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubscriberStore) ListAll(context.Context) ([]*model.Subscriber, error) {
	out := make([]*model.Subscriber, 0, len(f.byEmail))
	for _, sub := range f.byEmail {
		out = append(out, sub)
	}
	return out, nil
}

func (f *fakeSubscriberStore) Count(context.Context) (int, error) {
	return len(f.byEmail), nil
}

type fakeIssueStore struct {
	byID map[string]*model.Issue
}

func (f *fakeIssueStore) Create(context.Context, *model.CreateIssueRequest) (*model.Issue, error) {
	panic("not used")
}

func (f *fakeIssueStore) GetByID(_ context.Context, id string) (*model.Issue, error) {
	issue, ok := f.byID[id]
	if !ok {
		return nil, data.ErrIssueNotFound
	}
	return issue, nil
}

func (f *fakeIssueStore) GetByNumber(context.Context, int) (*model.Issue, error) {
	panic("not used")
}

func (f *fakeIssueStore) List(context.Context, model.IssuesListOptions) ([]*model.Issue, error) {
	panic("not used")
}

func (f *fakeIssueStore) Update(context.Context, string, model.UpdateIssueRequest) (*model.Issue, error) {
	panic("not used")
}

func (f *fakeIssueStore) SetPublished(context.Context, string, bool) (*model.Issue, error) {
	panic("not used")
}

func (f *fakeIssueStore) Delete(context.Context, string) (bool, error) {
	panic("not used")
}

type fakeGuard struct {
	keys map[string]bool
}

func (f *fakeGuard) SetIfNotExists(_ context.Context, key string, _ []byte, _ time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = make(map[string]bool)
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func TestNewsletterService_SubscribeAndUnsubscribe(t *testing.T) {
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: newFakeSubscriberStore(),
	})

	sub, err := svc.Subscribe(context.Background(), &model.SubscribeRequest{Email: "Reader@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)

	_, err = svc.Subscribe(context.Background(), &model.SubscribeRequest{Email: "reader@example.com"})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	require.NoError(t, svc.Unsubscribe(context.Background(), sub.UnsubscribeToken))
	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), sub.UnsubscribeToken), ErrUnsubscribeNotFound)
}

func TestNewsletterService_BroadcastRequiresPublishedIssue(t *testing.T) {
	issues := &fakeIssueStore{byID: map[string]*model.Issue{
		"draft": {ID: "draft", Number: 4, Published: false},
	}}
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: newFakeSubscriberStore(),
		Issues:      issues,
	})

	_, err := svc.Broadcast(context.Background(), "draft")
	assert.ErrorIs(t, err, ErrIssueNotPublished)

	_, err = svc.Broadcast(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestNewsletterService_BroadcastIsIdempotentPerIssue(t *testing.T) {
	subs := newFakeSubscriberStore()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := subs.Create(context.Background(), email)
		require.NoError(t, err)
	}
	issues := &fakeIssueStore{byID: map[string]*model.Issue{
		"iss-1": {ID: "iss-1", Number: 7, Published: true},
	}}
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: subs,
		Issues:      issues,
		Guard:       &fakeGuard{},
		Concurrency: 2,
	})

	res, err := svc.Broadcast(context.Background(), "iss-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Recipients)
	assert.Equal(t, 7, res.IssueNumber)

	_, err = svc.Broadcast(context.Background(), "iss-1")
	assert.ErrorIs(t, err, ErrBroadcastDuplicate)
}

type brokenSubscriberStore struct {
	*fakeSubscriberStore
	listErr error
}

func (f *brokenSubscriberStore) ListAll(context.Context) ([]*model.Subscriber, error) {
	return nil, f.listErr
}

type metricCall struct {
	kind string
	name string
	tags map[string]string
}

type captureSink struct {
	calls []metricCall
}

func (s *captureSink) Count(name string, _ int64, tags map[string]string) {
	s.calls = append(s.calls, metricCall{kind: "count", name: name, tags: tags})
}

func (s *captureSink) Gauge(name string, _ float64, tags map[string]string) {
	s.calls = append(s.calls, metricCall{kind: "gauge", name: name, tags: tags})
}

func (s *captureSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.calls = append(s.calls, metricCall{kind: "timing", name: name, tags: tags})
}

type captureAlerter struct {
	payloads []notify.BroadcastFailurePayload
}

func (a *captureAlerter) NotifyBroadcastFailure(_ context.Context, payload notify.BroadcastFailurePayload) {
	a.payloads = append(a.payloads, payload)
}

func TestNewsletterService_BroadcastEmitsMetrics(t *testing.T) {
	subs := newFakeSubscriberStore()
	_, err := subs.Create(context.Background(), "a@example.com")
	require.NoError(t, err)

	issues := &fakeIssueStore{byID: map[string]*model.Issue{
		"iss-1": {ID: "iss-1", Number: 7, Published: true},
	}}
	sink := &captureSink{}
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: subs,
		Issues:      issues,
		Guard:       &fakeGuard{},
		Metrics:     sink,
	})

	_, err = svc.Broadcast(context.Background(), "iss-1")
	require.NoError(t, err)

	require.NotEmpty(t, sink.calls)
	assert.Equal(t, "newsletter.broadcast", sink.calls[0].name)
	assert.Equal(t, "success", sink.calls[0].tags["result"])

	// The duplicate run shows up as a noop, not an error.
	_, err = svc.Broadcast(context.Background(), "iss-1")
	require.ErrorIs(t, err, ErrBroadcastDuplicate)
	last := sink.calls[len(sink.calls)-1]
	assert.Equal(t, "noop", last.tags["result"])
}

func TestNewsletterService_BroadcastFailureAlerts(t *testing.T) {
	issues := &fakeIssueStore{byID: map[string]*model.Issue{
		"iss-1": {ID: "iss-1", Number: 7, TitleEn: "First Light", Published: true},
	}}
	sink := &captureSink{}
	alerts := &captureAlerter{}
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: &brokenSubscriberStore{
			fakeSubscriberStore: newFakeSubscriberStore(),
			listErr:             errors.New("connection reset"),
		},
		Issues:  issues,
		Metrics: sink,
		Alerts:  alerts,
	})

	_, err := svc.Broadcast(context.Background(), "iss-1")
	require.Error(t, err)

	require.Len(t, alerts.payloads, 1)
	payload := alerts.payloads[0]
	assert.Equal(t, "iss-1", payload.IssueID)
	assert.Equal(t, 7, payload.IssueNumber)
	assert.Equal(t, "First Light", payload.IssueTitle)
	assert.Contains(t, payload.Error, "connection reset")
	assert.Equal(t, notify.SeverityCritical, payload.Severity)

	require.NotEmpty(t, sink.calls)
	assert.Equal(t, "error", sink.calls[0].tags["result"])
}

func TestNewsletterService_CallerMistakesDoNotAlert(t *testing.T) {
	issues := &fakeIssueStore{byID: map[string]*model.Issue{
		"draft": {ID: "draft", Number: 4, Published: false},
	}}
	alerts := &captureAlerter{}
	svc := NewNewsletterService(NewsletterServiceOptions{
		Subscribers: newFakeSubscriberStore(),
		Issues:      issues,
		Alerts:      alerts,
	})

	_, err := svc.Broadcast(context.Background(), "draft")
	require.ErrorIs(t, err, ErrIssueNotPublished)
	_, err = svc.Broadcast(context.Background(), "missing")
	require.ErrorIs(t, err, ErrContentNotFound)

	assert.Empty(t, alerts.payloads)
}
