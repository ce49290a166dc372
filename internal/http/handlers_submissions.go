package httpx

import (
	"errors"
	"net/http"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// SubmissionHandlers serves the public submission inbox and the editorial
// review queue.
type SubmissionHandlers struct {
	Svc *service.SubmissionService
}

// Submit handles POST /api/submissions. The endpoint is public: readers
// do not need an account to send in work. When a signed-in reader omits
// their name or email, the verified identity fills the blanks.
func (h *SubmissionHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSubmissionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if identity, ok := GetIdentityFromContext(r.Context()); ok {
		if req.SubmitterName == "" {
			req.SubmitterName = identity.Name
		}
		if req.SubmitterEmail == "" {
			req.SubmitterEmail = identity.Email
		}
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	sub, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		writeSubmissionErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// SubmitOwn handles POST /api/account/submissions, the shortcut for
// contributors and editors. Identity is authoritative here: the piece is
// always filed under the signed-in account, whatever the body claims.
func (h *SubmissionHandlers) SubmitOwn(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.CreateSubmissionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.SubmitterName = identity.Name
	req.SubmitterEmail = identity.Email
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	sub, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		writeSubmissionErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// List handles GET /api/admin/submissions.
func (h *SubmissionHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	opts := model.SubmissionsListOptions{Limit: limit, Offset: offset}
	if raw := optionalQuery(r, "status"); raw != nil {
		status := model.SubmissionStatus(*raw)
		if status.Valid() {
			opts.Status = &status
		}
	}
	if raw := optionalQuery(r, "kind"); raw != nil {
		kind := model.SubmissionKind(*raw)
		if kind.Valid() {
			opts.Kind = &kind
		}
	}

	subs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeSubmissionErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// Get handles GET /api/admin/submissions/{id}.
func (h *SubmissionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSubmissionErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// Review handles POST /api/admin/submissions/{id}/review.
func (h *SubmissionHandlers) Review(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.ReviewSubmissionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	sub, err := h.Svc.Review(r.Context(), r.PathValue("id"), identity.ID, req)
	if err != nil {
		writeSubmissionErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// Delete handles DELETE /api/admin/submissions/{id}.
func (h *SubmissionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeSubmissionErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSubmissionErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	case errors.Is(err, service.ErrAlreadyReviewed):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "already_reviewed", Err: err})
	default:
		writeMappedErr(w, err)
	}
}
