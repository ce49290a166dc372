package httpx

import (
	"net/http"

	"github.com/beranamag/berana/internal/service"
)

// NotificationHandlers serves the synthesized back-office feed.
type NotificationHandlers struct {
	Svc *service.NotificationService
}

// Feed handles GET /api/admin/notifications.
func (h *NotificationHandlers) Feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Svc.Feed(r.Context())
	if err != nil {
		writeMappedErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notifications": feed})
}
