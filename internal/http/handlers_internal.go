package http

import (
	"net/http"

	"github.com/Learn-Trical-23/EE-24/internal/jobs"
)

type runCleanupResponse struct {
	OK     bool        `json:"ok"`
	Status jobs.Status `json:"status"`
}

func (s *Server) handleCleanupStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cleanup.Status())
}

func (s *Server) handleRunCleanup(w http.ResponseWriter, r *http.Request) {
	status := s.cleanup.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, runCleanupResponse{
		OK:     status.LastRemoved != nil,
		Status: status,
	})
}
