package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
)

// PerkRepository provides perk catalog storage and the atomic stock primitive.
type PerkRepository interface {
	// Create inserts a new perk.
	Create(ctx context.Context, p *model.Perk) error
	// Get loads a perk by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Perk, error)
	// ListByLandlord returns a landlord's perks, newest first.
	ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Perk, error)
	// Delete removes a perk owned by the landlord. ErrNotFound when the perk
	// does not exist or belongs to someone else.
	Delete(ctx context.Context, perkID, landlordID uuid.UUID) error

	// ReserveStock increments claimed_count conditioned on remaining stock
	// (vacuously true for unlimited perks). ErrSoldOut when the condition
	// matched no row. This is the serialization point for concurrent claims
	// of the same perk.
	ReserveStock(ctx context.Context, perkID uuid.UUID) error
}

// ClaimRepository stores the immutable redemption audit records.
type ClaimRepository interface {
	// Insert writes a claim row. ErrAlreadyExists on idempotency key reuse.
	Insert(ctx context.Context, c *model.PerkClaim) error
	// GetByIdempotencyKey returns the tenant's claim recorded under key.
	GetByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*model.PerkClaim, error)
	// ListByLandlord returns claims against a landlord's perks, newest first.
	ListByLandlord(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.PerkClaim, error)
	// MarkFulfilled sets the fulfilment flag on a claim owned by the landlord.
	MarkFulfilled(ctx context.Context, claimID, landlordID uuid.UUID) error
}
