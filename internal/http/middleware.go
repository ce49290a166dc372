package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/observability/metrics"
	"github.com/beranamag/berana/internal/observability/statsd"
)

// Authenticator verifies a raw token and re-checks the identity against
// the live user store. service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Identity, error)
}

// SessionCookieName is the cookie the session token is carried in.
const SessionCookieName = "berana_session"

// Logging returns a middleware that logs HTTP requests and emits per-request
// metrics to sink when one is configured. The metric's route tag is the mux
// pattern (populated by ServeMux during dispatch), so tag cardinality stays
// bounded no matter what paths clients probe.
func Logging(logger *slog.Logger, sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", duration),
			)
			if sink != nil {
				metrics.EmitRequest(sink, metrics.RequestMetric{
					Method:   r.Method,
					Route:    r.Pattern,
					Status:   ww.status,
					Duration: duration,
				})
			}
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that requires a verified identity.
// Every failure mode, whether the token is missing, malformed, expired,
// tampered with, or belongs to a deleted or deactivated account, yields
// the same 401 body.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromRequest(r, auth)
			if identity == nil {
				writeAuthRequired(w)
				return
			}
			ctx := SetIdentityInContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability returns a middleware that requires a verified identity
// whose role may exercise cap. Missing identity is 401; a verified identity
// outside the capability's role set is 403.
func RequireCapability(auth Authenticator, cap domainauth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromRequest(r, auth)
			if identity == nil {
				writeAuthRequired(w)
				return
			}
			if !cap.Allows(identity.Role) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			ctx := SetIdentityInContext(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns a middleware that attaches the identity when a valid
// token is present and continues anonymously otherwise.
func OptionalAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := identityFromRequest(r, auth); identity != nil {
				r = r.WithContext(SetIdentityInContext(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

// identityFromRequest extracts the token (cookie first, then bearer header)
// and runs the verify-plus-live-recheck pipeline. Any failure returns nil;
// the distinction between failure modes never leaves this function.
func identityFromRequest(r *http.Request, auth Authenticator) *domainauth.Identity {
	token := extractToken(r)
	if token == "" {
		return nil
	}
	identity, err := auth.Authenticate(r.Context(), token)
	if err != nil {
		return nil
	}
	return &identity
}

// extractToken prefers the session cookie and falls back to an
// Authorization: Bearer header for non-browser clients.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
