package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// envelope is the JSON body of every API response. Success responses
// carry "success": true plus the payload; errors carry "success": false
// and an "error" message.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, payload envelope) {
	body := envelope{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "error": message})
}

// respondError maps a domain error kind to exactly one response class.
// Store errors are logged with their cause but never shown to callers.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *core.Error
	switch core.KindOf(err) {
	case core.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case core.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case core.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case core.KindPermission:
		writeError(w, http.StatusForbidden, err.Error())
	default:
		if errors.As(err, &domainErr) && domainErr.Err != nil {
			slog.ErrorContext(r.Context(), "Store operation failed",
				log.FieldComponent, log.ComponentHTTP,
				log.FieldOperation, domainErr.Msg,
				log.FieldError, domainErr.Err,
				log.FieldPath, r.URL.Path)
		} else {
			slog.ErrorContext(r.Context(), "Request failed",
				log.FieldComponent, log.ComponentHTTP,
				log.FieldError, err,
				log.FieldPath, r.URL.Path)
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
