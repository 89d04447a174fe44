package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// Task reward bounds (per task, fixed at creation).
const (
	MinPointsReward = 1
	MaxPointsReward = 500
)

var taskCategories = map[string]bool{
	"cleaning":      true,
	"maintenance":   true,
	"energy_saving": true,
	"community":     true,
	"general":       true,
}

// CreateTaskInput is a landlord's new task assignment.
type CreateTaskInput struct {
	TenantID     uuid.UUID
	Title        string
	Description  string
	Category     string
	PointsReward int64
}

// VerifyResult reports a successful approval together with the tenant's
// balance after the award.
type VerifyResult struct {
	Task       *model.Task
	NewBalance int64
}

// TaskService manages the task lifecycle from creation through verification.
type TaskService interface {
	// Create assigns a new task to one of the landlord's tenants.
	Create(ctx context.Context, landlordID uuid.UUID, in CreateTaskInput) (*model.Task, error)
	// Get returns a task visible to the caller.
	Get(ctx context.Context, taskID, callerID uuid.UUID, role model.Role) (*model.Task, error)
	// List returns the caller's tasks (created for landlords, assigned for tenants).
	List(ctx context.Context, callerID uuid.UUID, role model.Role, limit, offset int) ([]model.Task, error)
	// SubmitProof attaches a proof reference and moves the task to submitted.
	SubmitProof(ctx context.Context, taskID, tenantID uuid.UUID, proofRef string) (*model.Task, error)
	// Approve finalizes a submitted task and awards its points exactly once.
	Approve(ctx context.Context, taskID, landlordID uuid.UUID) (*VerifyResult, error)
	// Reject returns a submitted task to the tenant with a mandatory reason.
	Reject(ctx context.Context, taskID, landlordID uuid.UUID, reason string) (*model.Task, error)
}

type TaskServiceImpl struct {
	tasks    repository.TaskRepository
	accounts repository.AccountRepository
	notifier Notifier
}

// NewTaskService constructs TaskService with required dependencies.
func NewTaskService(tasks repository.TaskRepository, accounts repository.AccountRepository, notifier Notifier) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, accounts: accounts, notifier: notifier}
}

// Create validates the assignment and inserts the task in pending state.
func (s *TaskServiceImpl) Create(ctx context.Context, landlordID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", errs.ErrValidation)
	}
	if in.PointsReward < MinPointsReward || in.PointsReward > MaxPointsReward {
		return nil, fmt.Errorf("%w: points_reward must be between %d and %d", errs.ErrValidation, MinPointsReward, MaxPointsReward)
	}
	if in.Category == "" {
		in.Category = "general"
	}
	if !taskCategories[in.Category] {
		return nil, fmt.Errorf("%w: unknown category %q", errs.ErrValidation, in.Category)
	}

	tenant, err := s.accounts.GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Role != model.RoleTenant || !tenant.LandlordID.Valid || tenant.LandlordID.UUID != landlordID {
		return nil, errs.ErrNotFound
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Task{
		ID:           id,
		LandlordID:   landlordID,
		TenantID:     in.TenantID,
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		Category:     in.Category,
		PointsReward: in.PointsReward,
		Status:       model.TaskPending,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get loads a task and checks it belongs to the caller's side of the
// relationship. Outsiders get ErrNotFound, not a hint the task exists.
func (s *TaskServiceImpl) Get(ctx context.Context, taskID, callerID uuid.UUID, role model.Role) (*model.Task, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	switch role {
	case model.RoleLandlord:
		if t.LandlordID != callerID {
			return nil, errs.ErrNotFound
		}
	case model.RoleTenant:
		if t.TenantID != callerID {
			return nil, errs.ErrNotFound
		}
	default:
		return nil, errs.ErrNotFound
	}
	return t, nil
}

// List returns the caller's tasks, newest first.
func (s *TaskServiceImpl) List(ctx context.Context, callerID uuid.UUID, role model.Role, limit, offset int) ([]model.Task, error) {
	if role == model.RoleLandlord {
		return s.tasks.ListByLandlord(ctx, callerID, limit, offset)
	}
	return s.tasks.ListByTenant(ctx, callerID, limit, offset)
}

// SubmitProof attaches the proof reference and flips the task to submitted.
// Resubmission after rejection clears the previous rejection reason.
func (s *TaskServiceImpl) SubmitProof(ctx context.Context, taskID, tenantID uuid.UUID, proofRef string) (*model.Task, error) {
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return nil, fmt.Errorf("%w: proof reference required", errs.ErrValidation)
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.TenantID != tenantID {
		return nil, errs.ErrNotFound
	}
	if err := s.tasks.MarkSubmitted(ctx, taskID, tenantID, proofRef); err != nil {
		return nil, err
	}
	return s.tasks.Get(ctx, taskID)
}

// Approve flips submitted -> approved and awards points exactly once.
//
// The conditional status update decides the race: of any number of concurrent
// or retried approvals, exactly one observes status=submitted. The award runs
// after the transition is durable and is keyed by the task id in the ledger,
// so it cannot be applied twice even if the reconciliation sweep races it.
func (s *TaskServiceImpl) Approve(ctx context.Context, taskID, landlordID uuid.UUID) (*VerifyResult, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.LandlordID != landlordID {
		return nil, errs.ErrNotFound
	}

	// The caller may disconnect mid-verification; once the transition lands
	// the award must still be attempted.
	ctx = context.WithoutCancel(ctx)

	tenantID, reward, err := s.tasks.Approve(ctx, taskID, landlordID)
	if err != nil {
		return nil, err
	}

	balance, err := s.accounts.Adjust(ctx, tenantID, reward, model.EntryTaskAward, taskID)
	if errors.Is(err, errs.ErrAlreadyExists) {
		// Award already in the ledger (reconciliation sweep got there first).
		balance, err = s.accounts.Balance(ctx, tenantID)
	}
	if err != nil {
		// Approved but not yet paid; the sweep repairs this window.
		return nil, fmt.Errorf("award for approved task %s: %w", taskID, err)
	}

	s.notifier.Notify(ctx, tenantID,
		"Task Approved",
		fmt.Sprintf("%q approved! You earned %d points.", t.Title, reward),
		"task_update", "tasks")

	t.Status = model.TaskApproved
	return &VerifyResult{Task: t, NewBalance: balance}, nil
}

// Reject returns a submitted task to the tenant. A non-empty reason is
// mandatory and is checked before any store access.
func (s *TaskServiceImpl) Reject(ctx context.Context, taskID, landlordID uuid.UUID, reason string) (*model.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required when rejecting a task", errs.ErrValidation)
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.LandlordID != landlordID {
		return nil, errs.ErrNotFound
	}
	if err := s.tasks.Reject(ctx, taskID, landlordID, reason); err != nil {
		return nil, err
	}

	msg := reason
	if len(msg) > 100 {
		msg = msg[:100]
	}
	s.notifier.Notify(ctx, t.TenantID,
		"Task Returned",
		fmt.Sprintf("%q needs resubmission: %s", t.Title, msg),
		"task_update", "tasks")

	t.Status = model.TaskRejected
	t.RejectionReason = reason
	return t, nil
}
