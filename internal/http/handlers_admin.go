package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/Learn-Trical-23/EE-24/internal/auth"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

type profileSummary struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

type pendingRequestSummary struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Status    model.RequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	FullName  string              `json:"full_name"`
	Email     string              `json:"email"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func toProfileSummaries(profiles []model.Profile) []profileSummary {
	out := make([]profileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileSummary{
			ID:        p.ID,
			FullName:  p.FullName,
			Email:     p.Email,
			Role:      p.Role,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := s.requests.ListPending(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	out := make([]pendingRequestSummary, 0, len(pending))
	for _, req := range pending {
		out = append(out, pendingRequestSummary{
			ID:        req.ID,
			UserID:    req.UserID,
			Status:    req.Status,
			CreatedAt: req.CreatedAt,
			FullName:  req.Profile.FullName,
			Email:     req.Profile.Email,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	status, err := s.requests.Approve(r.Context(), requestID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r, "requestID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	status, err := s.requests.Reject(r.Context(), requestID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.directory.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileSummaries(profiles))
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req setRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.directory.SetRole(r.Context(), userID, req.Role); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.revokeAfterRoleChange(r, userID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRevokeTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	err := s.tokens.RevokeUser(r.Context(), userID)
	if errors.Is(err, auth.ErrRevocationDisabled) {
		writeError(w, http.StatusNotImplemented, "revocation_disabled")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("target_user", userID).Msg("revoke tokens failed")
		writeError(w, http.StatusServiceUnavailable, "revocation_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.directory.ListAdmins(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileSummaries(admins))
}

func (s *Server) handleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := s.requests.RemoveAdmin(r.Context(), userID); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.revokeAfterRoleChange(r, userID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// revokeAfterRoleChange drops the user's outstanding tokens so the new role applies on next login.
// Failures are logged only; the role change has already committed.
func (s *Server) revokeAfterRoleChange(r *http.Request, userID string) {
	if !s.tokens.RevocationEnabled() {
		return
	}
	if err := s.tokens.RevokeUser(r.Context(), userID); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("target_user", userID).Msg("revoke after role change failed")
	}
}
