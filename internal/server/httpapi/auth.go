package httpapi

import (
	"net/http"
	"time"

	"github.com/rentshield/rewards/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	tokens, acct, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     tokens.AccessToken,
		ExpiresAt: tokens.ExpiresAt,
		UserID:    acct.ID.String(),
		Role:      string(acct.Role),
		Name:      acct.Name,
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Points     int64  `json:"points"`
	LandlordID string `json:"landlord_id,omitempty"`
}

func toAccountResponse(a *model.Account) accountResponse {
	resp := accountResponse{
		UserID: a.ID.String(),
		Name:   a.Name,
		Email:  a.Email,
		Role:   string(a.Role),
		Points: a.Points,
	}
	if a.LandlordID.Valid {
		resp.LandlordID = a.LandlordID.UUID.String()
	}
	return resp
}

func (s *Server) handleCreateLandlord(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r, model.RoleAdmin); !ok {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	acct, err := s.auth.RegisterLandlord(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	acct, err := s.auth.RegisterTenant(r.Context(), id.UserID, req.Name, req.Email, req.Password)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	acct, err := s.accounts.Get(r.Context(), id.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	tenants, err := s.accounts.ListTenants(r.Context(), id.UserID, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, toAccountResponse(&tenants[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type balanceResponse struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

// handleBalance returns the caller's point balance. Read-only and
// non-authoritative: claims and awards never consult it.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	points, err := s.accounts.Balance(r.Context(), id.UserID)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{UserID: id.UserID.String(), Points: points})
}
