package http

import (
	"net/http"

	"github.com/Learn-Trical-23/EE-24/internal/events"
	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
)

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, degraded, err := s.events.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "events_unavailable")
		return
	}
	if degraded {
		w.Header().Set(eventsync.DegradedHeader, "true")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	createdBy := ""
	if claims := claimsFromContext(r.Context()); claims != nil {
		createdBy = claims.UserID()
	}
	event, err := s.events.Create(r.Context(), in, createdBy)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": event})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var in events.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	event, err := s.events.Update(r.Context(), eventID, in)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": event})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := s.events.Delete(r.Context(), eventID); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
