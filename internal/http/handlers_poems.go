package httpx

import (
	"errors"
	"net/http"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// PoemHandlers serves the public poem pages and the editorial poem surface.
type PoemHandlers struct {
	Svc *service.PoemService
}

// ListPublished handles GET /api/poems.
func (h *PoemHandlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	poems, err := h.Svc.ListPublished(r.Context(), parseContentListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"poems": poems})
}

// GetPublished handles GET /api/poems/{slug}.
func (h *PoemHandlers) GetPublished(w http.ResponseWriter, r *http.Request) {
	poem, err := h.Svc.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, poem)
}

// List handles GET /api/admin/poems.
func (h *PoemHandlers) List(w http.ResponseWriter, r *http.Request) {
	poems, err := h.Svc.List(r.Context(), parseContentListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"poems": poems})
}

// Get handles GET /api/admin/poems/{id}.
func (h *PoemHandlers) Get(w http.ResponseWriter, r *http.Request) {
	poem, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, poem)
}

// Create handles POST /api/admin/poems.
func (h *PoemHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.CreatePoemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	poem, err := h.Svc.Create(r.Context(), identity.ID, &req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, poem)
}

// Update handles PUT /api/admin/poems/{id}.
func (h *PoemHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePoemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	poem, err := h.Svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, poem)
}

// SetStatus handles POST /api/admin/poems/{id}/status.
func (h *PoemHandlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     errors.New("status must be draft, published, or archived"),
		})
		return
	}

	poem, err := h.Svc.SetStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, poem)
}

// Delete handles DELETE /api/admin/poems/{id}.
func (h *PoemHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeContentErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
