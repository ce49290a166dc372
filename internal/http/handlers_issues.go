package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// IssueHandlers serves the public issue archive and the editorial issue
// surface.
type IssueHandlers struct {
	Svc *service.IssueService
}

func parseIssuesListOptions(r *http.Request) model.IssuesListOptions {
	limit, offset := parsePagination(r)
	return model.IssuesListOptions{
		Limit:  limit,
		Offset: offset,
		Theme:  optionalQuery(r, "theme"),
	}
}

// ListPublished handles GET /api/issues.
func (h *IssueHandlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	issues, err := h.Svc.ListPublished(r.Context(), parseIssuesListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

// GetPublished handles GET /api/issues/{number}.
func (h *IssueHandlers) GetPublished(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number <= 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     errors.New("issue number must be a positive integer"),
		})
		return
	}

	issue, err := h.Svc.GetPublishedByNumber(r.Context(), number)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, issue)
}

// List handles GET /api/admin/issues.
func (h *IssueHandlers) List(w http.ResponseWriter, r *http.Request) {
	issues, err := h.Svc.List(r.Context(), parseIssuesListOptions(r))
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

// Create handles POST /api/admin/issues.
func (h *IssueHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateIssueRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	issue, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, issue)
}

// Update handles PUT /api/admin/issues/{id}.
func (h *IssueHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateIssueRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	issue, err := h.Svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, issue)
}

type setPublishedRequest struct {
	Published bool `json:"published"`
}

// SetPublished handles POST /api/admin/issues/{id}/published.
func (h *IssueHandlers) SetPublished(w http.ResponseWriter, r *http.Request) {
	var req setPublishedRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	issue, err := h.Svc.SetPublished(r.Context(), r.PathValue("id"), req.Published)
	if err != nil {
		writeContentErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, issue)
}

// Delete handles DELETE /api/admin/issues/{id}.
func (h *IssueHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeContentErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
