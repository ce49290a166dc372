package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beranamag/berana/config"
	"github.com/beranamag/berana/internal/adapters/bcryptpw"
	"github.com/beranamag/berana/internal/adapters/jwtauth"
	redisadapter "github.com/beranamag/berana/internal/adapters/redis"
	"github.com/beranamag/berana/internal/ports"
	"github.com/beranamag/berana/internal/service"
)

// AuthConfig groups dependencies for building the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	BaseURL     string
	Users       ports.UserStore
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService wires the token service, password hasher, and reset
// rate limiter into an AuthService. The JWT secret is plumbed from
// configuration here; token verification never reads the environment.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	tokens, err := jwtauth.NewTokenService(jwtauth.TokenServiceOptions{
		Secret:  []byte(cfg.Auth.JWTSecret),
		Horizon: cfg.Auth.TokenHorizon,
	})
	if err != nil {
		return nil, fmt.Errorf("build token service: %w", err)
	}

	// Without Redis the reset flow still works, just uncapped. The
	// service treats a nil limiter as "always allow".
	var limiter ports.ResetLimiter
	if cfg.RedisClient != nil {
		l, limErr := redisadapter.NewResetLimiter(redisadapter.ResetLimiterOptions{
			Client: cfg.RedisClient,
			Limit:  cfg.Auth.ResetRequestsPerHour,
			Window: time.Hour,
		})
		if limErr != nil {
			return nil, fmt.Errorf("build reset limiter: %w", limErr)
		}
		limiter = l
	} else if cfg.Logger != nil {
		cfg.Logger.Warn("redis not configured, password reset requests are not rate limited")
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Users:        cfg.Users,
		Tokens:       tokens,
		Hasher:       bcryptpw.NewHasher(0),
		ResetLimiter: limiter,
		ResetTTL:     cfg.Auth.ResetTokenTTL,
		BaseURL:      cfg.BaseURL,
	})
}
