package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
)

// ClaimRepo implements ClaimRepository using PostgreSQL.
type ClaimRepo struct{ db *DB }

// NewClaimRepo constructs a claim repository.
func NewClaimRepo(db *DB) *ClaimRepo { return &ClaimRepo{db: db} }

// Insert writes a claim audit row. The idempotency key column carries a
// unique index, so a replayed insert surfaces as ErrAlreadyExists.
func (r *ClaimRepo) Insert(ctx context.Context, c *model.PerkClaim) error {
	const q = `
INSERT INTO perk_claims (id, perk_id, tenant_id, landlord_id, perk_title, points_spent, idempotency_key, fulfilled)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), false)`
	_, err := r.db.Pool.Exec(ctx, q,
		c.ID, c.PerkID, c.TenantID, c.LandlordID, c.PerkTitle, c.PointsSpent, c.IdempotencyKey)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

const claimColumns = `id, perk_id, tenant_id, landlord_id, perk_title, points_spent,
	COALESCE(idempotency_key,''), fulfilled, claimed_at`

func scanClaim(row pgx.Row) (*model.PerkClaim, error) {
	var c model.PerkClaim
	if err := row.Scan(&c.ID, &c.PerkID, &c.TenantID, &c.LandlordID, &c.PerkTitle,
		&c.PointsSpent, &c.IdempotencyKey, &c.Fulfilled, &c.ClaimedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByIdempotencyKey returns the tenant's claim recorded under key.
func (r *ClaimRepo) GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.PerkClaim, error) {
	const q = `SELECT ` + claimColumns + ` FROM perk_claims WHERE tenant_id=$1 AND idempotency_key=$2`
	c, err := scanClaim(r.db.Pool.QueryRow(ctx, q, tenantID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByLandlord returns claims against a landlord's perks, newest first.
func (r *ClaimRepo) ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.PerkClaim, error) {
	const q = `SELECT ` + claimColumns + ` FROM perk_claims WHERE landlord_id=$1 ORDER BY claimed_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, landlordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PerkClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// MarkFulfilled sets the fulfilment flag. Outside the concurrency-critical
// path; a plain conditional update scoped to the owning landlord.
func (r *ClaimRepo) MarkFulfilled(ctx context.Context, claimID, landlordID uuid.UUID) error {
	const q = `UPDATE perk_claims SET fulfilled=true WHERE id=$1 AND landlord_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, claimID, landlordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
