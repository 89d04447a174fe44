package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/service"
)

type createTaskRequest struct {
	TenantID     string `json:"tenant_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	PointsReward int64  `json:"points_reward"`
}

type taskResponse struct {
	TaskID          string     `json:"task_id"`
	LandlordID      string     `json:"landlord_id"`
	TenantID        string     `json:"tenant_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	PointsReward    int64      `json:"points_reward"`
	Status          string     `json:"status"`
	ProofRef        string     `json:"proof_ref"`
	RejectionReason string     `json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		TaskID:          t.ID.String(),
		LandlordID:      t.LandlordID.String(),
		TenantID:        t.TenantID.String(),
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		PointsReward:    t.PointsReward,
		Status:          string(t.Status),
		ProofRef:        t.ProofRef,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt,
	}
	if !t.SubmittedAt.IsZero() {
		resp.SubmittedAt = &t.SubmittedAt
	}
	if !t.VerifiedAt.IsZero() {
		resp.VerifiedAt = &t.VerifiedAt
	}
	return resp
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	return id, err == nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	tenantID, err := uuid.FromString(req.TenantID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad tenant_id")
		return
	}
	t, err := s.tasks.Create(r.Context(), id.UserID, service.CreateTaskInput{
		TenantID:     tenantID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord, model.RoleTenant)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	tasks, err := s.tasks.List(r.Context(), id.UserID, id.Role, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord, model.RoleTenant)
	if !ok {
		return
	}
	taskID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad task id")
		return
	}
	t, err := s.tasks.Get(r.Context(), taskID, id.UserID, id.Role)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

type submitProofRequest struct {
	ProofRef string `json:"proof_ref"`
}

func (s *Server) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleTenant)
	if !ok {
		return
	}
	taskID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad task id")
		return
	}
	var req submitProofRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}
	t, err := s.tasks.SubmitProof(r.Context(), taskID, id.UserID, req.ProofRef)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

type verifyTaskRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

type verifyTaskResponse struct {
	Task       taskResponse `json:"task"`
	NewBalance *int64       `json:"new_balance,omitempty"`
}

func (s *Server) handleVerifyTask(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r, model.RoleLandlord)
	if !ok {
		return
	}
	taskID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad task id")
		return
	}
	var req verifyTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request body")
		return
	}

	if req.Approved {
		res, err := s.tasks.Approve(r.Context(), taskID, id.UserID)
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyTaskResponse{
			Task:       toTaskResponse(res.Task),
			NewBalance: &res.NewBalance,
		})
		return
	}

	t, err := s.tasks.Reject(r.Context(), taskID, id.UserID, req.Reason)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyTaskResponse{Task: toTaskResponse(t)})
}
