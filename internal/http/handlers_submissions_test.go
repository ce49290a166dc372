package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// recordingSubmissionStore keeps what Create received so tests can
// assert on the request the handler actually filed.
type recordingSubmissionStore struct {
	created []*model.CreateSubmissionRequest
}

func (s *recordingSubmissionStore) Create(_ context.Context, req *model.CreateSubmissionRequest) (*model.Submission, error) {
	s.created = append(s.created, req)
	return &model.Submission{
		ID:             "sub-1",
		SubmitterName:  req.SubmitterName,
		SubmitterEmail: req.SubmitterEmail,
		Kind:           req.Kind,
		Title:          req.Title,
		Body:           req.Body,
		Language:       req.Language,
		Status:         model.SubmissionPending,
	}, nil
}

func (s *recordingSubmissionStore) GetByID(context.Context, string) (*model.Submission, error) {
	return nil, nil
}

func (s *recordingSubmissionStore) List(context.Context, model.SubmissionsListOptions) ([]*model.Submission, error) {
	return nil, nil
}

func (s *recordingSubmissionStore) Review(context.Context, string, string, model.ReviewSubmissionRequest) (*model.Submission, error) {
	return nil, nil
}

func (s *recordingSubmissionStore) Delete(context.Context, string) (bool, error) {
	return false, nil
}

func submissionBody(t *testing.T, fields map[string]string) *bytes.Buffer {
	t.Helper()
	payload := map[string]string{
		"kind":     "poem",
		"title":    "Rainy Season",
		"body":     "lines about rain",
		"language": "en",
	}
	for k, v := range fields {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func TestSubmit_AnonymousUsesBodyFields(t *testing.T) {
	store := &recordingSubmissionStore{}
	handlers := &SubmissionHandlers{Svc: service.NewSubmissionService(store)}
	handler := OptionalAuth(newFakeAuthenticator())(http.HandlerFunc(handlers.Submit))

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", submissionBody(t, map[string]string{
		"submitter_name":  "Walk-in Poet",
		"submitter_email": "poet@example.com",
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Walk-in Poet", store.created[0].SubmitterName)
	assert.Equal(t, "poet@example.com", store.created[0].SubmitterEmail)
}

func TestSubmit_SessionPrefillsSubmitter(t *testing.T) {
	store := &recordingSubmissionStore{}
	handlers := &SubmissionHandlers{Svc: service.NewSubmissionService(store)}
	handler := OptionalAuth(newFakeAuthenticator())(http.HandlerFunc(handlers.Submit))

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", submissionBody(t, nil))
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "reader-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Reader", store.created[0].SubmitterName)
	assert.Equal(t, "reader@example.com", store.created[0].SubmitterEmail)
}

func TestSubmit_BodyFieldsWinOverSession(t *testing.T) {
	store := &recordingSubmissionStore{}
	handlers := &SubmissionHandlers{Svc: service.NewSubmissionService(store)}
	handler := OptionalAuth(newFakeAuthenticator())(http.HandlerFunc(handlers.Submit))

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", submissionBody(t, map[string]string{
		"submitter_name":  "Pen Name",
		"submitter_email": "pen@example.com",
	}))
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "reader-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Pen Name", store.created[0].SubmitterName)
	assert.Equal(t, "pen@example.com", store.created[0].SubmitterEmail)
}

func TestSubmitOwn_IdentityOverridesBody(t *testing.T) {
	store := &recordingSubmissionStore{}
	handlers := &SubmissionHandlers{Svc: service.NewSubmissionService(store)}
	handler := RequireCapability(newFakeAuthenticator(), domainauth.CapCreateSubmissions)(http.HandlerFunc(handlers.SubmitOwn))

	req := httptest.NewRequest(http.MethodPost, "/api/account/submissions", submissionBody(t, map[string]string{
		"submitter_name":  "Somebody Else",
		"submitter_email": "somebody@example.com",
	}))
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "contributor-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Contributor", store.created[0].SubmitterName)
	assert.Equal(t, "contrib@example.com", store.created[0].SubmitterEmail)
}

func TestSubmitOwn_CapabilityTable(t *testing.T) {
	cases := []struct {
		token string
		want  int
	}{
		{"contributor-token", http.StatusCreated},
		{"editor-token", http.StatusCreated},
		{"admin-token", http.StatusCreated},
		{"reader-token", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		store := &recordingSubmissionStore{}
		handlers := &SubmissionHandlers{Svc: service.NewSubmissionService(store)}
		handler := RequireCapability(newFakeAuthenticator(), domainauth.CapCreateSubmissions)(http.HandlerFunc(handlers.SubmitOwn))

		req := httptest.NewRequest(http.MethodPost, "/api/account/submissions", submissionBody(t, nil))
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tc.token})
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, tc.want, rec.Code, "token=%s", tc.token)
	}
}
