package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
)

// TokenService mints and verifies signed, stateless session tokens.
//
// Issue is a pure function of its inputs, the server secret, and the
// current time. Verify checks the signature and expiry only; the live
// identity recheck is the middleware's job.
type TokenService interface {
	Issue(identity domainauth.Identity) (string, error)
	Verify(token string) (domainauth.Claims, error)
}

// PasswordHasher hashes and compares credential secrets.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches the stored hash.
	Compare(hash, password string) error
}

// UserStore is the subset of user persistence the auth flow depends on.
// The full repository in internal/data satisfies it.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) (*model.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error
	GetByResetToken(ctx context.Context, token string) (*model.User, error)
}

// ResetLimiter caps how often a single email can request a password reset.
type ResetLimiter interface {
	// Allow reports whether another reset request for email is permitted
	// inside the current window, consuming one slot when it is.
	Allow(ctx context.Context, email string) (bool, error)
}
