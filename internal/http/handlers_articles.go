package httpx

import (
	"errors"
	"net/http"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// ArticleHandlers serves the public article pages and the editorial
// article surface.
type ArticleHandlers struct {
	Svc *service.ArticleService
}

// ListPublished handles GET /api/articles.
func (h *ArticleHandlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Svc.ListPublished(r.Context(), parseContentListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// GetPublished handles GET /api/articles/{slug}.
func (h *ArticleHandlers) GetPublished(w http.ResponseWriter, r *http.Request) {
	article, err := h.Svc.GetPublishedBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// List handles GET /api/admin/articles.
func (h *ArticleHandlers) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Svc.List(r.Context(), parseContentListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// Get handles GET /api/admin/articles/{id}.
func (h *ArticleHandlers) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// Create handles POST /api/admin/articles.
func (h *ArticleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentityFromContext(r.Context())
	if !ok {
		writeAuthRequired(w)
		return
	}

	var req model.CreateArticleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	article, err := h.Svc.Create(r.Context(), identity.ID, &req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, article)
}

// Update handles PUT /api/admin/articles/{id}.
func (h *ArticleHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateArticleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	article, err := h.Svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

type setStatusRequest struct {
	Status model.ContentStatus `json:"status"`
}

// SetStatus handles POST /api/admin/articles/{id}/status.
func (h *ArticleHandlers) SetStatus(w http.ResponseWriter, r *http.Request) {
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

	article, err := h.Svc.SetStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

// Delete handles DELETE /api/admin/articles/{id}.
func (h *ArticleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeContentErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeContentErr maps content-service errors to HTTP responses. It is
// shared by the article, poem, and issue handlers.
func writeContentErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrContentNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	case errors.Is(err, service.ErrSlugTaken), errors.Is(err, service.ErrIssueNumberTaken):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: err})
	default:
		writeMappedErr(w, err)
	}
}
