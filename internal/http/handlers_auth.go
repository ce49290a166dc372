package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// AuthHandlers serves registration, login, session inspection, and the
// password reset flow.
type AuthHandlers struct {
	Svc          *service.AuthService
	CookieDomain string
	TokenMaxAge  time.Duration
	IsDev        bool
	Logger       *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	result, err := h.Svc.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "email_taken", Err: err})
			return
		}
		h.writeAuthFailure(w, r, err)
		return
	}

	h.setSessionCookie(w, r, result.Token)
	WriteJSON(w, http.StatusCreated, sessionResponse{User: result.User, Token: result.Token})
}

// Login handles POST /api/auth/login. All credential failures share one
// response so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountDeactivated):
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "invalid_credentials",
				Err:     errors.New("invalid email or password"),
			})
		default:
			h.writeAuthFailure(w, r, err)
		}
		return
	}

	h.setSessionCookie(w, r, result.Token)
	WriteJSON(w, http.StatusOK, sessionResponse{User: result.User, Token: result.Token})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout
// only clears the cookie; an exfiltrated token stays valid until expiry.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Session handles GET /api/auth/session. Unlike the middleware it
// distinguishes failure modes: 401 for token problems, 403 for a
// deactivated account, 404 when the identity row is gone.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		writeAuthRequired(w)
		return
	}

	identity, err := h.Svc.Authenticate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpiredOrInvalid):
			writeAuthRequired(w)
		case errors.Is(err, service.ErrAccountDeactivated):
			WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "account_deactivated", Err: err})
		case errors.Is(err, service.ErrUserNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "user_not_found", Err: err})
		default:
			h.writeAuthFailure(w, r, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": identity})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is
// the same whether or not the email is registered. Dev mode echoes the
// reset link so the flow can be exercised without a mail relay.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	link, err := h.Svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeAuthFailure(w, r, err)
		return
	}

	resp := map[string]string{"message": "if the address is registered, a reset link has been sent"}
	if h.IsDev && link != "" {
		resp["reset_link"] = link
	}
	WriteJSON(w, http.StatusOK, resp)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) || errors.Is(err, service.ErrPasswordTooShort) {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "reset_failed",
				Err:     errors.New("reset link is invalid or the password is too short"),
			})
			return
		}
		h.writeAuthFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	maxAge := int(h.TokenMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((168 * time.Hour).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports whether the request arrived over TLS, directly
// or via a terminating proxy.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *AuthHandlers) writeAuthFailure(w http.ResponseWriter, r *http.Request, err error) {
	if h.Logger != nil {
		h.Logger.ErrorContext(r.Context(), "auth request failed", "err", err, "path", r.URL.Path)
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "internal_error",
		Err:     errors.New("internal server error"),
	})
}
