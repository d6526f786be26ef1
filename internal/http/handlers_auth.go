package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Learn-Trical-23/EE-24/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type userSummary struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Role model.Role `json:"role"`
}

type requestAdminRequest struct {
	UserID string `json:"userId"`
}

// handleLogin trusts the caller's identity provider: the email alone selects the profile.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	profile, err := s.directory.Login(r.Context(), req.Email)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	token, err := s.tokens.Issue(profile.ID, profile.Role)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User: userSummary{
			ID:   profile.ID,
			Name: profile.FullName,
			Role: profile.Role,
		},
	})
}

func (s *Server) handleRequestAdmin(w http.ResponseWriter, r *http.Request) {
	var req requestAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	if err := s.requests.Create(r.Context(), userID.String()); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.RequestPending)})
}
