package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// UserHandlers is the admin account-management surface.
type UserHandlers struct {
	Svc *service.UserService
}

// List handles GET /api/admin/users.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	opts := model.UsersListOptions{
		Limit:  limit,
		Offset: offset,
		Q:      optionalQuery(r, "q"),
	}
	if raw := optionalQuery(r, "role"); raw != nil {
		role := domainauth.Role(*raw)
		if role.Valid() {
			opts.Role = &role
		}
	}
	if raw := optionalQuery(r, "active"); raw != nil {
		active := *raw == "true"
		opts.Active = &active
	}

	users, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeUserErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Get handles GET /api/admin/users/{id}.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUserErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/admin/users/{id}: rename, role change, and
// activate/deactivate. Deactivation cuts off the target's live sessions
// because every request rechecks the stored account.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	user, err := h.Svc.Update(r.Context(), identity.ID, r.PathValue("id"), req)
	if err != nil {
		writeUserErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func writeUserErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	case errors.Is(err, service.ErrSelfDemotion):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "self_demotion", Err: err})
	default:
		writeMappedErr(w, err)
	}
}
