package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

// Create inserts a new task in pending state.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, landlord_id, tenant_id, title, description, category, points_reward, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')`
	_, err := r.db.Pool.Exec(ctx, q,
		t.ID, t.LandlordID, t.TenantID, t.Title, t.Description, t.Category, t.PointsReward)
	return err
}

const taskColumns = `id, landlord_id, tenant_id, title, description, category, points_reward,
	status, proof_ref, rejection_reason, created_at, submitted_at, verified_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var status string
	var submittedAt, verifiedAt *time.Time
	if err := row.Scan(&t.ID, &t.LandlordID, &t.TenantID, &t.Title, &t.Description, &t.Category,
		&t.PointsReward, &status, &t.ProofRef, &t.RejectionReason, &t.CreatedAt,
		&submittedAt, &verifiedAt); err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	if submittedAt != nil {
		t.SubmittedAt = *submittedAt
	}
	if verifiedAt != nil {
		t.VerifiedAt = *verifiedAt
	}
	return &t, nil
}

// Get selects a task by ID.
func (r *TaskRepo) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TaskRepo) list(ctx context.Context, q string, who uuid.UUID, limit, offset int) ([]model.Task, error) {
	rows, err := r.db.Pool.Query(ctx, q, who, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListByLandlord returns tasks created by a landlord, newest first.
func (r *TaskRepo) ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE landlord_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, q, landlordID, limit, offset)
}

// ListByTenant returns tasks assigned to a tenant, newest first.
func (r *TaskRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, q, tenantID, limit, offset)
}

// MarkSubmitted attaches the proof reference and flips the task to submitted,
// conditioned on the current status permitting submission.
func (r *TaskRepo) MarkSubmitted(ctx context.Context, taskID, tenantID uuid.UUID, proofRef string) error {
	const q = `
UPDATE tasks
SET status='submitted', proof_ref=$3, submitted_at=now(), rejection_reason=''
WHERE id=$1 AND tenant_id=$2 AND status IN ('pending','rejected')`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, tenantID, proofRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrInvalidState
	}
	return nil
}

// Approve flips submitted -> approved. The status condition is what makes
// double approval impossible: a retried request no longer observes
// status=submitted and affects zero rows.
func (r *TaskRepo) Approve(ctx context.Context, taskID, landlordID uuid.UUID) (uuid.UUID, int64, error) {
	const q = `
UPDATE tasks
SET status='approved', verified_at=now()
WHERE id=$1 AND landlord_id=$2 AND status='submitted'
RETURNING tenant_id, points_reward`
	var tenantID uuid.UUID
	var reward int64
	err := r.db.Pool.QueryRow(ctx, q, taskID, landlordID).Scan(&tenantID, &reward)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, 0, errs.ErrAlreadyVerified
		}
		return uuid.Nil, 0, err
	}
	return tenantID, reward, nil
}

// Reject flips submitted -> rejected and records the reason.
func (r *TaskRepo) Reject(ctx context.Context, taskID, landlordID uuid.UUID, reason string) error {
	const q = `
UPDATE tasks
SET status='rejected', rejection_reason=$3, verified_at=now()
WHERE id=$1 AND landlord_id=$2 AND status='submitted'`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, landlordID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAlreadyVerified
	}
	return nil
}

// ListUnpaidAwards returns approved tasks verified before cutoff whose award
// entry never landed in the ledger.
func (r *TaskRepo) ListUnpaidAwards(ctx context.Context, cutoff time.Time) ([]repository.UnpaidAward, error) {
	const q = `
SELECT t.id, t.tenant_id, t.points_reward
FROM tasks t
WHERE t.status='approved'
  AND t.verified_at < $1
  AND NOT EXISTS (SELECT 1 FROM point_entries e WHERE e.kind='task_award' AND e.ref = t.id)
ORDER BY t.verified_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.UnpaidAward
	for rows.Next() {
		var u repository.UnpaidAward
		if err := rows.Scan(&u.TaskID, &u.TenantID, &u.PointsReward); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
