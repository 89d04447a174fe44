package httpapi

import (
	"net/http"
	"time"

	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/service"
)

type createPerkRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	PointsCost        int64  `json:"points_cost"`
	AvailableQuantity *int64 `json:"available_quantity"`
}

type perkResponse struct {
	PerkID            string    `json:"perk_id"`
	LandlordID        string    `json:"landlord_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	PointsCost        int64     `json:"points_cost"`
	AvailableQuantity int64     `json:"available_quantity"`
	ClaimedCount      int64     `json:"claimed_count"`
	CreatedAt         time.Time `json:"created_at"`
}

func toPerkResponse(p *model.Perk) perkResponse {
	return perkResponse{
		PerkID:            p.ID.String(),
		LandlordID:        p.LandlordID.String(),
		Title:             p.Title,
		Description:       p.Description,
		PointsCost:        p.PointsCost,
		AvailableQuantity: p.AvailableQuantity,
		ClaimedCount:      p.ClaimedCount,
		CreatedAt:         p.CreatedAt,
	}
}

func (s *Server) handleCreatePerk(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	var req createPerkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	quantity := int64(model.UnlimitedQuantity)
	if req.AvailableQuantity != nil {
		quantity = *req.AvailableQuantity
	}
	p, err := s.perks.Create(r.Context(), id.UserID, service.CreatePerkInput{
		Title:             req.Title,
		Description:       req.Description,
		PointsCost:        req.PointsCost,
		AvailableQuantity: quantity,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPerkResponse(p))
}

func (s *Server) handleListPerks(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord, model.RoleTenant)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	perks, err := s.perks.List(r.Context(), id.UserID, id.Role, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]perkResponse, 0, len(perks))
	for i := range perks {
		out = append(out, toPerkResponse(&perks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePerk(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	perkID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad perk id")
		return
	}
	if err := s.perks.Delete(r.Context(), perkID, id.UserID); err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "perk deleted"})
}

type claimPerkResponse struct {
	Success         bool   `json:"success"`
	Status          string `json:"status"`
	ClaimID         string `json:"claim_id,omitempty"`
	Message         string `json:"message"`
	RemainingPoints int64  `json:"remaining_points"`
}

// handleClaimPerk spends the caller's points on a perk. Losing the race for
// stock or balance is a typed outcome with success=false, not an HTTP error.
func (s *Server) handleClaimPerk(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleTenant)
	if !ok {
		return
	}
	perkID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad perk id")
		return
	}
	res, err := s.redeem.Claim(r.Context(), perkID, id.UserID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		respondErr(w, err)
		return
	}
	resp := claimPerkResponse{
		Success:         res.Status == service.ClaimSuccess,
		Status:          string(res.Status),
		Message:         res.Message,
		RemainingPoints: res.Balance,
	}
	if resp.Success {
		resp.ClaimID = res.ClaimID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type claimRecordResponse struct {
	ClaimID     string    `json:"claim_id"`
	PerkID      string    `json:"perk_id"`
	PerkTitle   string    `json:"perk_title"`
	TenantID    string    `json:"tenant_id"`
	PointsSpent int64     `json:"points_spent"`
	Fulfilled   bool      `json:"fulfilled"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	claims, err := s.perks.Claims(r.Context(), id.UserID, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]claimRecordResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, claimRecordResponse{
			ClaimID:     c.ID.String(),
			PerkID:      c.PerkID.String(),
			PerkTitle:   c.PerkTitle,
			TenantID:    c.TenantID.String(),
			PointsSpent: c.PointsSpent,
			Fulfilled:   c.Fulfilled,
			ClaimedAt:   c.ClaimedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFulfillClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	claimID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad claim id")
		return
	}
	if err := s.perks.Fulfill(r.Context(), claimID, id.UserID); err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "claim fulfilled"})
}
