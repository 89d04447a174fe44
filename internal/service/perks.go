package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// CreatePerkInput is a landlord's new perk definition.
type CreatePerkInput struct {
	Title             string
	Description       string
	PointsCost        int64
	AvailableQuantity int64 // model.UnlimitedQuantity for no ceiling
}

// PerkService manages the perk catalog and the claim records around it.
type PerkService interface {
	// Create adds a perk to the landlord's catalog.
	Create(ctx context.Context, landlordID uuid.UUID, in CreatePerkInput) (*model.Perk, error)
	// List returns the catalog visible to the caller: their own for
	// landlords, their landlord's for tenants.
	List(ctx context.Context, callerID uuid.UUID, role model.Role, limit, offset int) ([]model.Perk, error)
	// Delete removes a perk owned by the landlord.
	Delete(ctx context.Context, perkID, landlordID uuid.UUID) error
	// Claims returns claims against the landlord's perks.
	Claims(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.PerkClaim, error)
	// Fulfill marks a claim as handed over to the tenant.
	Fulfill(ctx context.Context, claimID, landlordID uuid.UUID) error
}

type PerkServiceImpl struct {
	perks    repository.PerkRepository
	claims   repository.ClaimRepository
	accounts repository.AccountRepository
}

// NewPerkService constructs PerkService with required dependencies.
func NewPerkService(perks repository.PerkRepository, claims repository.ClaimRepository, accounts repository.AccountRepository) *PerkServiceImpl {
	return &PerkServiceImpl{perks: perks, claims: claims, accounts: accounts}
}

// Create validates and inserts a perk definition.
func (s *PerkServiceImpl) Create(ctx context.Context, landlordID uuid.UUID, in CreatePerkInput) (*model.Perk, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", errs.ErrValidation)
	}
	if in.PointsCost < 1 {
		return nil, fmt.Errorf("%w: points_cost must be positive", errs.ErrValidation)
	}
	if in.AvailableQuantity < model.UnlimitedQuantity {
		return nil, fmt.Errorf("%w: available_quantity must be -1 (unlimited) or non-negative", errs.ErrValidation)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p := &model.Perk{
		ID:                id,
		LandlordID:        landlordID,
		Title:             in.Title,
		Description:       strings.TrimSpace(in.Description),
		PointsCost:        in.PointsCost,
		AvailableQuantity: in.AvailableQuantity,
	}
	if err := s.perks.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List resolves whose catalog the caller sees. A tenant with no landlord
// assigned sees an empty catalog.
func (s *PerkServiceImpl) List(ctx context.Context, callerID uuid.UUID, role model.Role, limit, offset int) ([]model.Perk, error) {
	landlordID := callerID
	if role == model.RoleTenant {
		caller, err := s.accounts.GetByID(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if !caller.LandlordID.Valid {
			return []model.Perk{}, nil
		}
		landlordID = caller.LandlordID.UUID
	}
	return s.perks.ListByLandlord(ctx, landlordID, limit, offset)
}

// Delete removes a perk owned by the landlord.
func (s *PerkServiceImpl) Delete(ctx context.Context, perkID, landlordID uuid.UUID) error {
	return s.perks.Delete(ctx, perkID, landlordID)
}

// Claims returns claims against the landlord's perks, newest first.
func (s *PerkServiceImpl) Claims(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.PerkClaim, error) {
	return s.claims.ListByLandlord(ctx, landlordID, limit, offset)
}

// Fulfill marks a claim as handed over. Off the concurrency-critical path.
func (s *PerkServiceImpl) Fulfill(ctx context.Context, claimID, landlordID uuid.UUID) error {
	return s.claims.MarkFulfilled(ctx, claimID, landlordID)
}
