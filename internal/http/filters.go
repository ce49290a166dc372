package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/beranamag/berana/internal/domain/model"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination reads limit/offset query parameters with clamping.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxPageLimit)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// optionalQuery returns a pointer to the trimmed query parameter, or nil
// when absent or blank.
func optionalQuery(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

// parseContentListOptions reads the shared public-listing filters.
func parseContentListOptions(r *http.Request) model.ContentListOptions {
	limit, offset := parsePagination(r)
	opts := model.ContentListOptions{
		Limit:    limit,
		Offset:   offset,
		Q:        optionalQuery(r, "q"),
		Category: optionalQuery(r, "category"),
		IssueID:  optionalQuery(r, "issue_id"),
	}
	if raw := optionalQuery(r, "lang"); raw != nil {
		lang := model.Language(*raw)
		if lang.Valid() {
			opts.Lang = &lang
		}
	}
	if raw := optionalQuery(r, "status"); raw != nil {
		status := model.ContentStatus(*raw)
		if status.Valid() {
			opts.Status = &status
		}
	}
	return opts
}
