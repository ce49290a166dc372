package config

import "time"

// Token and reset-flow duration bounds. The sanitizer clamps configured
// values into these ranges rather than failing startup.
const (
	minTokenHorizon     = time.Hour
	maxTokenHorizon     = 30 * 24 * time.Hour
	defaultTokenHorizon = 7 * 24 * time.Hour

	minResetTokenTTL     = 5 * time.Minute
	maxResetTokenTTL     = 24 * time.Hour
	defaultResetTokenTTL = time.Hour
)

// AuthConfig groups all authentication-related configuration.
//
// JWTSecret is deliberately plumbed from here into the token service at
// startup; verification code never reads ambient environment state.
type AuthConfig struct {
	// JWTSecret signs and verifies session tokens. Required.
	JWTSecret string `env:"JWT_SECRET,required"`

	// TokenHorizon is the fixed lifetime of an issued session token.
	TokenHorizon time.Duration `env:"TOKEN_HORIZON" envDefault:"168h"`

	// ResetTokenTTL is the lifetime of a forgot-password reset token.
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	// ResetRequestsPerHour caps forgot-password requests per email address.
	ResetRequestsPerHour int `env:"RESET_REQUESTS_PER_HOUR" envDefault:"3"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenHorizon < minTokenHorizon || a.TokenHorizon > maxTokenHorizon {
		a.TokenHorizon = defaultTokenHorizon
	}
	if a.ResetTokenTTL < minResetTokenTTL || a.ResetTokenTTL > maxResetTokenTTL {
		a.ResetTokenTTL = defaultResetTokenTTL
	}
	if a.ResetRequestsPerHour < 1 {
		a.ResetRequestsPerHour = 3
	}
}
