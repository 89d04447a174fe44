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

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO users (id, email, name, role, pwd_hash, landlord_id)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Email, a.Name, string(a.Role), a.PwdHash, a.LandlordID)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

const accountColumns = `id, email, name, role, pwd_hash, landlord_id, points, created_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	var role string
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &a.PwdHash, &a.LandlordID, &a.Points, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM users WHERE id=$1`
	a, err := scanAccount(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM users WHERE email=$1`
	a, err := scanAccount(r.db.Pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListTenants returns the tenants assigned to a landlord.
func (r *AccountRepo) ListTenants(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM users
WHERE role='tenant' AND landlord_id=$1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.db.Pool.Query(ctx, q, landlordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Adjust applies the balance change and appends the ledger entry in a single
// atomic statement. The guard points + delta >= 0 is evaluated by the store,
// not read back first, so concurrent debits cannot drive a balance negative.
func (r *AccountRepo) Adjust(ctx context.Context, userID uuid.UUID, delta int64, kind model.EntryKind, ref uuid.UUID) (int64, error) {
	entryID, err := uuid.NewV4()
	if err != nil {
		return 0, err
	}
	const q = `
WITH adj AS (
	UPDATE users SET points = points + $2
	WHERE id = $1 AND points + $2 >= 0
	RETURNING points
)
INSERT INTO point_entries (id, user_id, delta, kind, ref)
SELECT $3, $1, $2, $4, $5 FROM adj
RETURNING (SELECT points FROM adj)`
	var balance int64
	err = r.db.Pool.QueryRow(ctx, q, userID, delta, entryID, string(kind), ref).Scan(&balance)
	switch {
	case err == nil:
		return balance, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Guard matched no row: balance too low, or the account vanished.
		return 0, errs.ErrInsufficientPoints
	case isUniqueViolation(err):
		// An entry for (kind, ref) already landed; the mutation is already
		// applied and must not be re-applied.
		return 0, errs.ErrAlreadyExists
	default:
		return 0, err
	}
}

// Balance reads the current balance for display.
func (r *AccountRepo) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `SELECT points FROM users WHERE id=$1`
	var balance int64
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// ListOrphanedDebits returns perk debits older than cutoff with neither a
// claim row nor a refund entry.
func (r *AccountRepo) ListOrphanedDebits(ctx context.Context, cutoff time.Time) ([]repository.OrphanedDebit, error) {
	const q = `
SELECT e.ref, e.user_id, -e.delta
FROM point_entries e
WHERE e.kind='perk_debit'
  AND e.created_at < $1
  AND NOT EXISTS (SELECT 1 FROM perk_claims c WHERE c.id = e.ref)
  AND NOT EXISTS (SELECT 1 FROM point_entries f WHERE f.kind='perk_refund' AND f.ref = e.ref)
ORDER BY e.created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.OrphanedDebit
	for rows.Next() {
		var d repository.OrphanedDebit
		if err := rows.Scan(&d.Ref, &d.UserID, &d.Amount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
