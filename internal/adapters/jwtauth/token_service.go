package jwtauth

// Package jwtauth implements the session TokenService with HS256-signed JWTs.
// Tokens are stateless: nothing is persisted server-side, and logout cannot
// revoke an outstanding token before its natural expiry. The middleware's
// live-identity recheck is the only server-side kill switch.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
)

// Verification failure sentinels. Callers outside the middleware should
// never surface the distinction to clients.
var (
	// ErrTokenMalformed is returned when the token cannot be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned when the token is past its expiry claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures, wrong algorithms, and
	// any other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// expiryLeeway tolerates small clock skew between issuer and verifier.
const expiryLeeway = 5 * time.Second

type sessionClaims struct {
	Email string          `json:"email"`
	Role  domainauth.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenServiceOptions groups construction parameters for TokenService.
type TokenServiceOptions struct {
	// Secret signs and verifies tokens. Injected at startup; never read
	// from the environment here.
	Secret []byte
	// Horizon is the fixed lifetime added to issuance time.
	Horizon time.Duration
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret  []byte
	horizon time.Duration
	now     func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(opts TokenServiceOptions) (*TokenService, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if opts.Horizon <= 0 {
		return nil, errors.New("token horizon must be positive")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: opts.Secret, horizon: opts.Horizon, now: now}, nil
}

// Issue mints a signed token embedding the identity claims, issued-at, and
// a fixed expiry horizon.
func (s *TokenService) Issue(identity domainauth.Identity) (string, error) {
	if identity.ID == "" {
		return "", errors.New("identity id is required")
	}
	if !identity.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", identity.Role)
	}

	now := s.now()
	claims := sessionClaims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.horizon)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry and returns the embedded claims.
func (s *TokenService) Verify(tokenStr string) (domainauth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrTokenInvalid
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(expiryLeeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domainauth.Claims{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return domainauth.Claims{}, ErrTokenExpired
		default:
			return domainauth.Claims{}, ErrTokenInvalid
		}
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return domainauth.Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domainauth.Claims{}, ErrTokenInvalid
	}

	out := domainauth.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}
