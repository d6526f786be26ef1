package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Learn-Trical-23/EE-24/internal/apperr"
	"github.com/Learn-Trical-23/EE-24/internal/db"
)

type createSubjectRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.catalog.ListSubjects(r.Context())
	if err != nil {
		writeFailure(w, r, apperr.Storage(err, "list subjects"))
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	subject, err := s.catalog.InsertSubject(r.Context(), req.Code, req.Name)
	if errors.Is(err, db.ErrDuplicate) {
		writeError(w, http.StatusConflict, "subject_exists")
		return
	}
	if err != nil {
		writeFailure(w, r, apperr.Storage(err, "create subject"))
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := pathID(r, "subjectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	subject, err := s.catalog.GetSubject(r.Context(), subjectID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subject_not_found")
		return
	}
	if err != nil {
		writeFailure(w, r, apperr.Storage(err, "get subject"))
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

func (s *Server) handleLatestActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := s.catalog.LatestActivity(r.Context(), activityLimit)
	if err != nil {
		writeFailure(w, r, apperr.Storage(err, "latest activity"))
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
