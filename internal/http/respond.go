package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
)

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeFailure maps the apperr taxonomy onto status codes.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeError(w, http.StatusBadRequest, apperr.CodeOf(err, "invalid_request"))
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, apperr.CodeOf(err, "not_found"))
	case errors.Is(err, apperr.ErrConflict):
		writeError(w, http.StatusConflict, apperr.CodeOf(err, "conflict"))
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, apperr.CodeOf(err, "unauthenticated"))
	case errors.Is(err, apperr.ErrForbidden):
		writeError(w, http.StatusForbidden, apperr.CodeOf(err, "forbidden"))
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "server_error",
			"message": apperr.MessageOf(err),
		})
	}
}

// pathID returns the named URL parameter when it is a UUID.
func pathID(r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
