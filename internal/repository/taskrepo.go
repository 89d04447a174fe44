package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
)

// UnpaidAward is an approved task whose award has no ledger entry yet.
type UnpaidAward struct {
	TaskID       uuid.UUID
	TenantID     uuid.UUID
	PointsReward int64
}

// TaskRepository provides task lifecycle storage. All transitions are single
// conditional updates keyed on the current status.
type TaskRepository interface {
	// Create inserts a new task in pending state.
	Create(ctx context.Context, t *model.Task) error
	// Get loads a task by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	// ListByLandlord returns tasks created by a landlord, newest first.
	ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Task, error)
	// ListByTenant returns tasks assigned to a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]model.Task, error)

	// MarkSubmitted records the proof reference and flips the task to
	// submitted, conditioned on status being pending or rejected.
	// ErrInvalidState when the condition matched no row.
	MarkSubmitted(ctx context.Context, taskID, tenantID uuid.UUID, proofRef string) error

	// Approve flips submitted -> approved, conditioned on the status still
	// being submitted, and returns the tenant and reward for the award step.
	// ErrAlreadyVerified when the condition matched no row: only the request
	// that observes status=submitted wins the race.
	Approve(ctx context.Context, taskID, landlordID uuid.UUID) (tenantID uuid.UUID, reward int64, err error)

	// Reject flips submitted -> rejected with a reason, same condition as
	// Approve. No ledger effect.
	Reject(ctx context.Context, taskID, landlordID uuid.UUID, reason string) error

	// ListUnpaidAwards returns approved tasks verified before cutoff whose
	// award entry is missing from the ledger.
	ListUnpaidAwards(ctx context.Context, cutoff time.Time) ([]UnpaidAward, error)
}
