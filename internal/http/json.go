package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/beranamag/berana/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination.
// Unknown fields are rejected so client typos fail loudly instead of being
// silently dropped. Returns false when an error response was already written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// writeMappedErr translates structured database errors that reached the
// handler without a matching service sentinel. The AppError messages are
// written for end users; internal detail stays in the Cause and is never
// sent to the client. Anything unrecognized becomes a generic 500.
func writeMappedErr(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeConflict:
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: errors.New(appErr.Message)})
			return
		case apperrors.ErrCodeForeignKey, apperrors.ErrCodeValidation:
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: string(appErr.Code), Err: errors.New(appErr.Message)})
			return
		case apperrors.ErrCodeNotFound:
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New(appErr.Message)})
			return
		case apperrors.ErrCodeTimeout:
			WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "timeout", Err: errors.New(appErr.Message)})
			return
		}
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "internal_error",
		Err:     errors.New("internal server error"),
	})
}
