package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/adapters/bcryptpw"
	"github.com/beranamag/berana/internal/adapters/jwtauth"
	"github.com/beranamag/berana/internal/data"
	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// memoryUserStore is an in-memory ports.UserStore for router-level tests.
type memoryUserStore struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	nextID int
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byID: make(map[string]*model.User)}
}

func (m *memoryUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (m *memoryUserStore) Create(_ context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return nil, data.ErrEmailExists
		}
	}
	m.nextID++
	cp := *user
	cp.ID = fmt.Sprintf("user-%d", m.nextID)
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memoryUserStore) SetPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return data.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (m *memoryUserStore) SetResetToken(_ context.Context, id string, token *string, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return data.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiresAt = expiresAt
	return nil
}

func (m *memoryUserStore) GetByResetToken(_ context.Context, token string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (m *memoryUserStore) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.Active = active
	}
}

type authTestEnv struct {
	handler http.Handler
	store   *memoryUserStore
	svc     *service.AuthService
}

func newAuthTestEnv(t *testing.T, isDev bool) *authTestEnv {
	t.Helper()

	store := newMemoryUserStore()
	tokens, err := jwtauth.NewTokenService(jwtauth.TokenServiceOptions{
		Secret:  []byte("router-test-secret-32-bytes-long"),
		Horizon: 168 * time.Hour,
	})
	require.NoError(t, err)

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Users:   store,
		Tokens:  tokens,
		Hasher:  bcryptpw.NewHasher(4),
		BaseURL: "http://localhost:8080",
	})
	require.NoError(t, err)

	handler := NewRouter(RouterServices{
		Auth:        authSvc,
		TokenMaxAge: 168 * time.Hour,
		IsDev:       isDev,
	})
	return &authTestEnv{handler: handler, store: store, svc: authSvc}
}

func (e *authTestEnv) postJSON(t *testing.T, path string, body any, configure func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *authTestEnv) register(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := e.postJSON(t, "/api/auth/register", map[string]string{
		"email": email, "name": "Test User", "password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  *model.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "register must set the session cookie")
	return resp.User.ID, sessionCookie
}

func TestAuthRoutes_RegisterSetsHardenedCookie(t *testing.T) {
	env := newAuthTestEnv(t, false)
	_, cookie := env.register(t, "selam@example.com", "password123")

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int((168 * time.Hour).Seconds()), cookie.MaxAge)
	assert.False(t, cookie.Secure, "plain HTTP request must not set Secure")
}

func TestAuthRoutes_SecureCookieBehindProxy(t *testing.T) {
	env := newAuthTestEnv(t, false)
	rec := env.postJSON(t, "/api/auth/register", map[string]string{
		"email": "selam@example.com", "name": "Selam", "password": "password123",
	}, func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			assert.True(t, c.Secure)
			return
		}
	}
	t.Fatal("session cookie not set")
}

func TestAuthRoutes_LoginFailuresAreIndistinguishable(t *testing.T) {
	env := newAuthTestEnv(t, false)
	env.register(t, "selam@example.com", "password123")

	wrongPass := env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "selam@example.com", "password": "wrong",
	}, nil)
	unknown := env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestAuthRoutes_SessionDistinguishesFailureModes(t *testing.T) {
	env := newAuthTestEnv(t, false)
	userID, cookie := env.register(t, "selam@example.com", "password123")

	getSession := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, getSession().Code)

	// Deactivated accounts get 403, not the blanket 401.
	env.store.setActive(userID, false)
	assert.Equal(t, http.StatusForbidden, getSession().Code)

	// A deleted identity gets 404.
	env.store.mu.Lock()
	delete(env.store.byID, userID)
	env.store.mu.Unlock()
	assert.Equal(t, http.StatusNotFound, getSession().Code)

	// No token at all is 401.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRoutes_LogoutClearsCookie(t *testing.T) {
	env := newAuthTestEnv(t, false)
	_, cookie := env.register(t, "selam@example.com", "password123")

	rec := env.postJSON(t, "/api/auth/logout", map[string]string{}, func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			assert.Less(t, c.MaxAge, 0, "logout must expire the cookie")
			return
		}
	}
	t.Fatal("logout did not touch the session cookie")
}

func TestAuthRoutes_ForgotPasswordNeverEnumerates(t *testing.T) {
	env := newAuthTestEnv(t, false)
	env.register(t, "selam@example.com", "password123")

	known := env.postJSON(t, "/api/auth/forgot-password", map[string]string{"email": "selam@example.com"}, nil)
	unknown := env.postJSON(t, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, nil)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	// Outside dev mode both bodies are the same generic message.
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestAuthRoutes_DevModeEchoesResetLinkAndResetWorks(t *testing.T) {
	env := newAuthTestEnv(t, true)
	env.register(t, "selam@example.com", "password123")

	rec := env.postJSON(t, "/api/auth/forgot-password", map[string]string{"email": "selam@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	link, ok := resp["reset_link"]
	require.True(t, ok, "dev mode echoes the reset link")

	var token string
	env.store.mu.Lock()
	for _, u := range env.store.byID {
		if u.ResetToken != nil {
			token = *u.ResetToken
		}
	}
	env.store.mu.Unlock()
	require.NotEmpty(t, token)
	assert.Contains(t, link, token)

	rec = env.postJSON(t, "/api/auth/reset-password", map[string]string{
		"token": token, "new_password": "brand-new-pass",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The consumed token is rejected with a generic 400.
	rec = env.postJSON(t, "/api/auth/reset-password", map[string]string{
		"token": token, "new_password": "brand-new-pass",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// And the new password logs in.
	rec = env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "selam@example.com", "password": "brand-new-pass",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoutes_UnknownJSONFieldsRejected(t *testing.T) {
	env := newAuthTestEnv(t, false)
	rec := env.postJSON(t, "/api/auth/login", map[string]string{
		"email": "a@example.com", "password": "x", "surprise": "field",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRoutes_DuplicateRegistration(t *testing.T) {
	env := newAuthTestEnv(t, false)
	env.register(t, "selam@example.com", "password123")

	rec := env.postJSON(t, "/api/auth/register", map[string]string{
		"email": "selam@example.com", "name": "Again", "password": "password456",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
