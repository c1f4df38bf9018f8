package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// writeServiceError maps domain failures onto status codes. Anything unrecognized is
// logged and answered with fallback and a generic message.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error, fallback int) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: verr.Error(), Errors: verr.Fields})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		r.logger.Error("request failed", "error", err, "path", req.URL.Path, "method", req.Method)
		msg := "Server error"
		if fallback < http.StatusInternalServerError {
			msg = "Request could not be processed"
		}
		writeError(w, fallback, msg)
	}
}

// decodeJSON reads a size-capped JSON body into dst. An empty body leaves dst untouched
// so field validation reports what is missing.
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	body := http.MaxBytesReader(w, req.Body, r.maxBody)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewValidationError("Request body too large", nil)
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError("Invalid request body", map[string]string{typeErr.Field: "has the wrong type"})
		}
		return domain.NewValidationError("Invalid request body", nil)
	}
	return nil
}
