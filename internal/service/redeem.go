package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// ClaimStatus is the typed outcome of a redemption attempt. Conflicts are
// outcomes, not errors: losing a race for stock or points is expected under
// load.
type ClaimStatus string

const (
	ClaimSuccess            ClaimStatus = "success"
	ClaimInsufficientPoints ClaimStatus = "insufficient_points"
	ClaimSoldOut            ClaimStatus = "sold_out"
)

// ClaimResult reports the outcome of a claim together with the balance the
// tenant is left with.
type ClaimResult struct {
	Status  ClaimStatus
	ClaimID uuid.UUID // set on success
	Balance int64
	Message string
}

// RedeemService orchestrates perk claims: debit, stock reservation, and the
// compensating refund when the reservation loses.
type RedeemService interface {
	// Claim spends the caller's points on one unit of the perk. idemKey is an
	// optional client-supplied idempotency key; a replay returns the recorded
	// outcome instead of spending twice.
	Claim(ctx context.Context, perkID, tenantID uuid.UUID, idemKey string) (*ClaimResult, error)
}

type RedeemServiceImpl struct {
	perks    repository.PerkRepository
	claims   repository.ClaimRepository
	accounts repository.AccountRepository
	notifier Notifier
	log      *zap.Logger
}

// NewRedeemService constructs RedeemService with required dependencies.
func NewRedeemService(
	perks repository.PerkRepository,
	claims repository.ClaimRepository,
	accounts repository.AccountRepository,
	notifier Notifier,
	log *zap.Logger,
) *RedeemServiceImpl {
	return &RedeemServiceImpl{perks: perks, claims: claims, accounts: accounts, notifier: notifier, log: log}
}

// Claim runs the redemption protocol:
//
//  1. replay check on the idempotency key (nothing spent twice on retries)
//  2. eligibility and advisory pre-checks on a read snapshot (no mutation)
//  3. atomic debit guarded by the balance
//  4. atomic stock reservation guarded by the quantity ceiling
//  5. on a lost reservation, compensating refund of the debit
//  6. claim audit row + best-effort landlord notification
//
// The debit is sequenced strictly before the reservation so stock is never
// held without payment; the refund is just another call to the same atomic
// primitive keyed by the claim id, so it cannot double-refund.
func (s *RedeemServiceImpl) Claim(ctx context.Context, perkID, tenantID uuid.UUID, idemKey string) (*ClaimResult, error) {
	if idemKey != "" {
		prev, err := s.claims.GetByIdempotencyKey(ctx, tenantID, idemKey)
		switch {
		case err == nil:
			balance, berr := s.accounts.Balance(ctx, tenantID)
			if berr != nil {
				return nil, berr
			}
			return &ClaimResult{
				Status:  ClaimSuccess,
				ClaimID: prev.ID,
				Balance: balance,
				Message: fmt.Sprintf("You claimed %q! Your landlord has been notified.", prev.PerkTitle),
			}, nil
		case !errors.Is(err, errs.ErrNotFound):
			return nil, err
		}
	}

	perk, err := s.perks.Get(ctx, perkID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.accounts.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Role != model.RoleTenant || !tenant.LandlordID.Valid || tenant.LandlordID.UUID != perk.LandlordID {
		return nil, errs.ErrNotEligible
	}

	// Advisory pre-checks on the snapshot. They avoid pointless writes but
	// prove nothing: the atomic updates below are the real gates.
	if perk.SoldOut() {
		return &ClaimResult{
			Status:  ClaimSoldOut,
			Balance: tenant.Points,
			Message: "Sorry, this perk is no longer available (all claimed).",
		}, nil
	}
	if tenant.Points < perk.PointsCost {
		return &ClaimResult{
			Status:  ClaimInsufficientPoints,
			Balance: tenant.Points,
			Message: fmt.Sprintf("You need %d points but only have %d.", perk.PointsCost, tenant.Points),
		}, nil
	}

	// From the debit on, the operation must finish even if the caller's
	// connection is cancelled: a debited-but-unresolved state must never be
	// left behind by a disconnect.
	ctx = context.WithoutCancel(ctx)

	claimID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	newBalance, err := s.accounts.Adjust(ctx, tenantID, -perk.PointsCost, model.EntryPerkDebit, claimID)
	if errors.Is(err, errs.ErrInsufficientPoints) {
		// A concurrent spend the snapshot could not see won the balance.
		balance, berr := s.accounts.Balance(ctx, tenantID)
		if berr != nil {
			return nil, berr
		}
		return &ClaimResult{
			Status:  ClaimInsufficientPoints,
			Balance: balance,
			Message: "Insufficient points (another claim may have been processed first).",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.perks.ReserveStock(ctx, perkID); err != nil {
		if errors.Is(err, errs.ErrSoldOut) {
			refunded, rerr := s.accounts.Adjust(ctx, tenantID, perk.PointsCost, model.EntryPerkRefund, claimID)
			if rerr != nil {
				// Definite debit, failed refund: leave it to the sweep
				// rather than guess at an unknown outcome.
				return nil, fmt.Errorf("refund after sold-out claim %s: %w", claimID, rerr)
			}
			return &ClaimResult{
				Status:  ClaimSoldOut,
				Balance: refunded,
				Message: "Sorry, this perk just sold out. Your points have been refunded.",
			}, nil
		}
		// Unknown outcome after a definite debit. Refunding here could
		// double-credit; the sweep resolves the orphaned debit instead.
		return nil, fmt.Errorf("reserve stock for claim %s: %w", claimID, err)
	}

	claim := &model.PerkClaim{
		ID:             claimID,
		PerkID:         perk.ID,
		TenantID:       tenantID,
		LandlordID:     perk.LandlordID,
		PerkTitle:      perk.Title,
		PointsSpent:    perk.PointsCost,
		IdempotencyKey: idemKey,
	}
	if err := s.claims.Insert(ctx, claim); err != nil {
		// Debit and reservation stand but the audit row is missing; the
		// sweep refunds the debit once the grace period passes.
		return nil, fmt.Errorf("record claim %s: %w", claimID, err)
	}

	s.notifier.Notify(ctx, perk.LandlordID,
		"Perk Claimed",
		fmt.Sprintf("%s claimed %q for %d points.", tenant.Name, perk.Title, perk.PointsCost),
		"perk_update", "perks")

	s.log.Info("perk claimed",
		zap.Stringer("claim", claimID),
		zap.Stringer("perk", perk.ID),
		zap.Stringer("tenant", tenantID),
		zap.Int64("points", perk.PointsCost),
	)

	return &ClaimResult{
		Status:  ClaimSuccess,
		ClaimID: claimID,
		Balance: newBalance,
		Message: fmt.Sprintf("You claimed %q! Your landlord has been notified.", perk.Title),
	}, nil
}
