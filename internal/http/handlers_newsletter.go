package httpx

import (
	"errors"
	"net/http"

	"github.com/beranamag/berana/internal/domain/model"
	"github.com/beranamag/berana/internal/service"
)

// NewsletterHandlers serves subscription management and the admin-only
// issue broadcast.
type NewsletterHandlers struct {
	Svc *service.NewsletterService
}

// Subscribe handles POST /api/newsletter/subscribe.
func (h *NewsletterHandlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req model.SubscribeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	sub, err := h.Svc.Subscribe(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubscribed) {
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "already_subscribed", Err: err})
			return
		}
		writeMappedErr(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles POST /api/newsletter/unsubscribe. The token comes
// from a newsletter footer link, not a session.
func (h *NewsletterHandlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req model.UnsubscribeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Svc.Unsubscribe(r.Context(), req.Token); err != nil {
		if errors.Is(err, service.ErrUnsubscribeNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
			return
		}
		writeMappedErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// Broadcast handles POST /api/admin/newsletter/broadcast.
func (h *NewsletterHandlers) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req model.BroadcastRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.IssueID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation_failed",
			Err:     errors.New("issue_id is required"),
		})
		return
	}

	result, err := h.Svc.Broadcast(r.Context(), req.IssueID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
		case errors.Is(err, service.ErrIssueNotPublished):
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "issue_not_published", Err: err})
		case errors.Is(err, service.ErrBroadcastDuplicate):
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "already_broadcast", Err: err})
		default:
			writeMappedErr(w, err)
		}
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
