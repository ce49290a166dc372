package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/beranamag/berana/internal/data"
	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/ports"
)

// Sentinel errors for authentication flows. The HTTP layer maps these to
// status codes; everything else surfaces as a generic 500.
var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrTokenExpiredOrInvalid = errors.New("session token expired or invalid")
	ErrAccountDeactivated    = errors.New("account is deactivated")
	ErrUserNotFound          = errors.New("user not found")
	ErrResetTokenInvalid     = errors.New("reset token invalid or expired")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters")
	ErrEmailTaken            = errors.New("email already registered")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users        ports.UserStore
	Tokens       ports.TokenService
	Hasher       ports.PasswordHasher
	ResetLimiter ports.ResetLimiter
	ResetTTL     time.Duration
	BaseURL      string
	TimeProvider data.TimeProvider
}

// AuthService orchestrates registration, login, token-backed session
// lookup, and the password reset flow.
type AuthService struct {
	users        ports.UserStore
	tokens       ports.TokenService
	hasher       ports.PasswordHasher
	resetLimiter ports.ResetLimiter
	resetTTL     time.Duration
	baseURL      string
	timeProvider data.TimeProvider
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Users == nil || opts.Tokens == nil || opts.Hasher == nil {
		return nil, errors.New("users, tokens, and hasher are required")
	}
	resetTTL := opts.ResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	return &AuthService{
		users:        opts.Users,
		tokens:       opts.Tokens,
		hasher:       opts.Hasher,
		resetLimiter: opts.ResetLimiter,
		resetTTL:     resetTTL,
		baseURL:      opts.BaseURL,
		timeProvider: tp,
	}, nil
}

// SessionResult bundles a user and the token minted for it.
type SessionResult struct {
	User  *model.User
	Token string
}

// Register creates a reader account and logs it in.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*SessionResult, error) {
	if req == nil {
		return nil, errors.New("register request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         domainauth.RoleReader,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, data.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &SessionResult{User: user, Token: token}, nil
}

// Login verifies credentials and mints a session token. Unknown email and
// wrong password return the same error so responses cannot be used to
// probe which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			// Burn a comparison so the timing of the miss resembles a hit.
			_ = s.hasher.Compare(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if compareErr := s.hasher.Compare(user.PasswordHash, password); compareErr != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDeactivated
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &SessionResult{User: user, Token: token}, nil
}

// dummyHash is a bcrypt digest of a throwaway string, compared against on
// unknown-email logins to keep response timing uniform.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Authenticate verifies a session token and then re-checks the identity
// against the store. A valid signature is not enough: the user must still
// exist and be active at request time, so deactivation and deletion take
// effect immediately despite stateless tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domainauth.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domainauth.Identity{}, ErrTokenExpiredOrInvalid
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return domainauth.Identity{}, ErrUserNotFound
		}
		return domainauth.Identity{}, fmt.Errorf("recheck identity: %w", err)
	}
	if !user.Active {
		return domainauth.Identity{}, ErrAccountDeactivated
	}
	return user.Identity(), nil
}

// ForgotPassword starts a reset flow. It always reports success to the
// caller: whether the email is registered is never revealed. The returned
// link is non-empty only when a token was actually issued, and only dev
// mode may echo it to the client.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		return "", nil
	}

	if s.resetLimiter != nil {
		allowed, limitErr := s.resetLimiter.Allow(ctx, normalized)
		if limitErr != nil {
			// Fail closed: a broken limiter must not open the floodgates.
			slog.WarnContext(ctx, "reset rate limiter failed", "error", limitErr)
			return "", nil
		}
		if !allowed {
			slog.WarnContext(ctx, "password reset rate limited", "email", normalized)
			return "", nil
		}
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	token := uuid.NewString()
	expiresAt := s.timeProvider.Now().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, &token, &expiresAt); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return s.resetLink(token), nil
}

// ResetPassword completes a reset flow. The token is single use: setting
// the new password clears it, so a replay of the same link fails.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrResetTokenInvalid
	}
	if len(newPassword) < model.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}
	if user.ResetTokenExpiresAt == nil || s.timeProvider.Now().After(*user.ResetTokenExpiresAt) {
		return ErrResetTokenInvalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *AuthService) resetLink(token string) string {
	base := s.baseURL
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/reset-password?token=" + url.QueryEscape(token)
}
