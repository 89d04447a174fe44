// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
)

// OrphanedDebit is a perk debit with no claim row and no refund entry,
// left behind by a fault between the debit and the rest of the claim.
type OrphanedDebit struct {
	Ref    uuid.UUID // claim id the debit was keyed by
	UserID uuid.UUID
	Amount int64 // points to give back (positive)
}

// AccountRepository provides account access and the atomic balance primitive.
type AccountRepository interface {
	// Create inserts a new account.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByEmail loads an account by email.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// ListTenants returns the tenants belonging to a landlord.
	ListTenants(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Account, error)

	// Adjust applies balance += delta guarded by balance + delta >= 0, and
	// appends the matching ledger entry, in one atomic statement. It returns
	// the new balance. ErrInsufficientPoints when the guard matched no row;
	// ErrAlreadyExists when an entry for (kind, ref) was already recorded.
	Adjust(ctx context.Context, userID uuid.UUID, delta int64, kind model.EntryKind, ref uuid.UUID) (int64, error)

	// Balance reads the current balance for display. Never a write precondition.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListOrphanedDebits returns perk debits recorded before cutoff that have
	// neither a claim row nor a refund entry.
	ListOrphanedDebits(ctx context.Context, cutoff time.Time) ([]OrphanedDebit, error)
}
