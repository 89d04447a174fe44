package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
)

// PerkRepo implements PerkRepository using PostgreSQL.
type PerkRepo struct{ db *DB }

// NewPerkRepo constructs a perk repository.
func NewPerkRepo(db *DB) *PerkRepo { return &PerkRepo{db: db} }

// Create inserts a new perk.
func (r *PerkRepo) Create(ctx context.Context, p *model.Perk) error {
	const q = `
INSERT INTO perks (id, landlord_id, title, description, points_cost, available_quantity)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q,
		p.ID, p.LandlordID, p.Title, p.Description, p.PointsCost, p.AvailableQuantity)
	return err
}

const perkColumns = `id, landlord_id, title, description, points_cost, available_quantity, claimed_count, created_at`

func scanPerk(row pgx.Row) (*model.Perk, error) {
	var p model.Perk
	if err := row.Scan(&p.ID, &p.LandlordID, &p.Title, &p.Description,
		&p.PointsCost, &p.AvailableQuantity, &p.ClaimedCount, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get selects a perk by ID.
func (r *PerkRepo) Get(ctx context.Context, id uuid.UUID) (*model.Perk, error) {
	const q = `SELECT ` + perkColumns + ` FROM perks WHERE id=$1`
	p, err := scanPerk(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByLandlord returns a landlord's perks, newest first.
func (r *PerkRepo) ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Perk, error) {
	const q = `SELECT ` + perkColumns + ` FROM perks WHERE landlord_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, landlordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Perk
	for rows.Next() {
		p, err := scanPerk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes a perk owned by the landlord.
func (r *PerkRepo) Delete(ctx context.Context, perkID, landlordID uuid.UUID) error {
	const q = `DELETE FROM perks WHERE id=$1 AND landlord_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, perkID, landlordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReserveStock takes one unit of stock. For finite perks the increment is
// conditioned on claimed_count < available_quantity; only one of N racing
// claims can be the increment that reaches the ceiling.
func (r *PerkRepo) ReserveStock(ctx context.Context, perkID uuid.UUID) error {
	const q = `
UPDATE perks SET claimed_count = claimed_count + 1
WHERE id=$1 AND (available_quantity = -1 OR claimed_count < available_quantity)`
	tag, err := r.db.Pool.Exec(ctx, q, perkID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrSoldOut
	}
	return nil
}
