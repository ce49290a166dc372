package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/service"
)

// fakeAuthenticator resolves tokens from a fixed table; everything else
// fails the way the real service does.
type fakeAuthenticator struct {
	identities map[string]domainauth.Identity
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (domainauth.Identity, error) {
	if identity, ok := f.identities[token]; ok {
		if !identity.Active {
			return domainauth.Identity{}, service.ErrAccountDeactivated
		}
		return identity, nil
	}
	return domainauth.Identity{}, service.ErrTokenExpiredOrInvalid
}

func newFakeAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{identities: map[string]domainauth.Identity{
		"reader-token":      {ID: "u-reader", Email: "reader@example.com", Name: "Reader", Role: domainauth.RoleReader, Active: true},
		"contributor-token": {ID: "u-contrib", Email: "contrib@example.com", Name: "Contributor", Role: domainauth.RoleContributor, Active: true},
		"editor-token":      {ID: "u-editor", Email: "editor@example.com", Name: "Editor", Role: domainauth.RoleEditor, Active: true},
		"admin-token":       {ID: "u-admin", Email: "admin@example.com", Name: "Admin", Role: domainauth.RoleAdmin, Active: true},
		"frozen-token":      {ID: "u-frozen", Email: "frozen@example.com", Role: domainauth.RoleEditor, Active: false},
	}}
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func doRequest(t *testing.T, handler http.Handler, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/articles", nil)
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_CookieToken(t *testing.T) {
	next, called := okHandler()
	handler := RequireAuth(newFakeAuthenticator())(next)

	rec := doRequest(t, handler, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "reader-token"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestRequireAuth_BearerFallback(t *testing.T) {
	next, called := okHandler()
	handler := RequireAuth(newFakeAuthenticator())(next)

	rec := doRequest(t, handler, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer reader-token")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestRequireAuth_CookieWinsOverHeader(t *testing.T) {
	auth := newFakeAuthenticator()
	var seen string
	handler := RequireAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		require.True(t, ok)
		seen = identity.ID
		w.WriteHeader(http.StatusOK)
	}))

	rec := doRequest(t, handler, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "editor-token"})
		r.Header.Set("Authorization", "Bearer reader-token")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-editor", seen)
}

func TestRequireAuth_UniformFailures(t *testing.T) {
	next, called := okHandler()
	handler := RequireAuth(newFakeAuthenticator())(next)

	cases := map[string]func(*http.Request){
		"no token":          nil,
		"garbage cookie":    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "nope"}) },
		"garbage bearer":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
		"deactivated user":  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "frozen-token"}) },
		"non-bearer scheme": func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
	}

	var bodies []string
	for name, configure := range cases {
		rec := doRequest(t, handler, configure)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.False(t, *called, name)
		bodies = append(bodies, rec.Body.String())
	}

	// Every failure mode produces an identical body.
	for _, body := range bodies[1:] {
		assert.Equal(t, bodies[0], body)
	}
}

func TestRequireCapability_RoleTable(t *testing.T) {
	auth := newFakeAuthenticator()
	next, _ := okHandler()
	handler := RequireCapability(auth, domainauth.CapManageUsers)(next)

	cases := []struct {
		token string
		want  int
	}{
		{"admin-token", http.StatusOK},
		{"editor-token", http.StatusForbidden},
		{"reader-token", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := doRequest(t, handler, func(r *http.Request) {
			if tc.token != "" {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tc.token})
			}
		})
		assert.Equal(t, tc.want, rec.Code, "token=%s", tc.token)
	}
}

func TestOptionalAuth(t *testing.T) {
	auth := newFakeAuthenticator()
	var hadIdentity bool
	handler := OptionalAuth(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadIdentity = GetIdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := doRequest(t, handler, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, hadIdentity)

	rec = doRequest(t, handler, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "reader-token"})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hadIdentity)
}

func TestLogging_EmitsRequestMetrics(t *testing.T) {
	sink := &captureMetricsSink{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/articles", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Logging(logger, sink)(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotEmpty(t, sink.counts)
	count := sink.counts[0]
	assert.Equal(t, "http.request", count.name)
	assert.Equal(t, "GET /api/articles", count.tags["route"])
	assert.Equal(t, "200", count.tags["status"])

	// Unmatched paths collapse into one tag value instead of echoing
	// attacker-controlled URLs.
	req = httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	last := sink.counts[len(sink.counts)-1]
	assert.Equal(t, "unmatched", last.tags["route"])
	assert.Equal(t, "404", last.tags["status"])
}

type capturedCount struct {
	name string
	tags map[string]string
}

type captureMetricsSink struct {
	counts []capturedCount
}

func (s *captureMetricsSink) Count(name string, _ int64, tags map[string]string) {
	s.counts = append(s.counts, capturedCount{name: name, tags: tags})
}

func (s *captureMetricsSink) Gauge(string, float64, map[string]string) {}

func (s *captureMetricsSink) Timing(string, time.Duration, map[string]string) {}
