package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/services"
)

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"currentPassword"`
	NewPassword          string `json:"newPassword"`
	ConfirmationPassword string `json:"confirmationPassword"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type roleResponse struct {
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := s.authService.Register(r.Context(), services.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := s.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token, ok := common.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if !ok {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing bearer token")
		return
	}
	pair, err := s.authService.RefreshAccessToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.authService.Logout(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.userService.ChangePassword(r.Context(), id, services.ChangePasswordRequest{
		CurrentPassword:      req.CurrentPassword,
		NewPassword:          req.NewPassword,
		ConfirmationPassword: req.ConfirmationPassword,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	user, err := s.userService.Me(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:          user.ID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Role:        string(user.Role),
		Authorities: id.Authorities,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	recs, err := s.userService.Sessions(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sessionResponse{ID: rec.ID, Type: string(rec.Type), CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRoles(w http.ResponseWriter, _ *http.Request) {
	out := make([]roleResponse, 0, len(auth.Roles))
	for _, role := range auth.Roles {
		out = append(out, roleResponse{Role: string(role), Authorities: auth.AuthoritiesFor(role)})
	}
	writeJSON(w, http.StatusOK, out)
}
