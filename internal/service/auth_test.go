package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beranamag/berana/internal/adapters/bcryptpw"
	"github.com/beranamag/berana/internal/adapters/jwtauth"
	"github.com/beranamag/berana/internal/data"
	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
)

// fakeUserStore is an in-memory ports.UserStore.
type fakeUserStore struct {
	byID   map[string]*model.User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]*model.User)}
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, data.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrUserNotFound
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == user.Email {
			return nil, data.ErrEmailExists
		}
	}
	f.nextID++
	cp := *user
	cp.ID = string(rune('a' + f.nextID))
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUserStore) SetPassword(_ context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return data.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, id string, token *string, expiresAt *time.Time) error {
	u, ok := f.byID[id]
	if !ok {
		return data.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpiresAt = expiresAt
	return nil
}

func (f *fakeUserStore) GetByResetToken(_ context.Context, token string) (*model.User, error) {
	for _, u := range f.byID {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrUserNotFound
}

// fakeLimiter allows a fixed number of resets.
type fakeLimiter struct {
	remaining int
	calls     int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	f.calls++
	if f.remaining <= 0 {
		return false, nil
	}
	f.remaining--
	return true, nil
}

func newTestAuthService(t *testing.T, store *fakeUserStore, tp data.TimeProvider) *AuthService {
	t.Helper()

	tokens, err := jwtauth.NewTokenService(jwtauth.TokenServiceOptions{
		Secret:  []byte("test-secret-test-secret-32bytes!"),
		Horizon: 168 * time.Hour,
	})
	require.NoError(t, err)

	svc, err := NewAuthService(AuthServiceOptions{
		Users:        store,
		Tokens:       tokens,
		Hasher:       bcryptpw.NewHasher(4),
		ResetTTL:     time.Hour,
		BaseURL:      "http://localhost:8080",
		TimeProvider: tp,
	})
	require.NoError(t, err)
	return svc
}

func registerUser(t *testing.T, svc *AuthService, email, password string) *model.User {
	t.Helper()
	res, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: password,
	})
	require.NoError(t, err)
	return res.User
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	user := registerUser(t, svc, "selam@example.com", "password123")
	assert.Equal(t, domainauth.RoleReader, user.Role)
	assert.True(t, user.Active)

	res, err := svc.Login(context.Background(), "Selam@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	registerUser(t, svc, "selam@example.com", "password123")
	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "selam@example.com",
		Name:     "Second",
		Password: "password456",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_LoginDoesNotRevealAccountExistence(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)
	registerUser(t, svc, "selam@example.com", "password123")

	_, wrongPassErr := svc.Login(context.Background(), "selam@example.com", "wrong-password")
	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "password123")

	assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}

func TestAuthService_AuthenticateRechecksLiveIdentity(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	res, err := svc.Login(
		context.Background(),
		registerUser(t, svc, "selam@example.com", "password123").Email,
		"password123",
	)
	require.NoError(t, err)

	identity, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, identity.ID)

	// Deactivation kills a still-valid token on the very next request.
	store.byID[res.User.ID].Active = false
	_, err = svc.Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrAccountDeactivated)

	// So does deleting the account outright.
	store.byID[res.User.ID].Active = true
	delete(store.byID, res.User.ID)
	_, err = svc.Authenticate(context.Background(), res.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_AuthenticateRejectsGarbageTokens(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, ErrTokenExpiredOrInvalid, "token %q", token)
	}
}

func TestAuthService_LoginDeactivatedAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	user := registerUser(t, svc, "selam@example.com", "password123")
	store.byID[user.ID].Active = false

	_, err := svc.Login(context.Background(), "selam@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestAuthService_ForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	link, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestAuthService_ForgotPasswordRateLimited(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)
	svc.resetLimiter = &fakeLimiter{remaining: 1}
	registerUser(t, svc, "selam@example.com", "password123")

	link, err := svc.ForgotPassword(context.Background(), "selam@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, link)

	// Over the limit: still reported as success, but no token issued.
	before := *store.byID["b"].ResetToken
	link, err = svc.ForgotPassword(context.Background(), "selam@example.com")
	require.NoError(t, err)
	assert.Empty(t, link)
	assert.Equal(t, before, *store.byID["b"].ResetToken)
}

func TestAuthService_ResetPasswordSingleUse(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)
	user := registerUser(t, svc, "selam@example.com", "password123")

	link, err := svc.ForgotPassword(context.Background(), "selam@example.com")
	require.NoError(t, err)
	token := *store.byID[user.ID].ResetToken
	assert.Contains(t, link, token)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-password-9"))

	// Replaying the consumed token fails.
	err = svc.ResetPassword(context.Background(), token, "another-password")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// Old password is gone, new one works.
	_, err = svc.Login(context.Background(), "selam@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "selam@example.com", "new-password-9")
	assert.NoError(t, err)
}

func TestAuthService_ResetPasswordExpiredToken(t *testing.T) {
	store := newFakeUserStore()
	clock := data.NewFixedTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(t, store, clock)
	user := registerUser(t, svc, "selam@example.com", "password123")

	_, err := svc.ForgotPassword(context.Background(), "selam@example.com")
	require.NoError(t, err)
	token := *store.byID[user.ID].ResetToken

	clock.AddTime(time.Hour + time.Minute)
	err = svc.ResetPassword(context.Background(), token, "new-password-9")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAuthService_ResetPasswordTooShort(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, nil)

	err := svc.ResetPassword(context.Background(), "whatever", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8")
}
