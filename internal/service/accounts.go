package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// AccountService exposes account reads to the outer surface.
type AccountService interface {
	// Balance returns the current point balance. Display only: callers must
	// never use it to decide whether a later mutation is safe.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	// Get returns the caller's own account.
	Get(ctx context.Context, userID uuid.UUID) (*model.Account, error)
	// ListTenants returns the landlord's tenants.
	ListTenants(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Account, error)
}

type AccountServiceImpl struct {
	accounts repository.AccountRepository
}

// NewAccountService constructs AccountService.
func NewAccountService(accounts repository.AccountRepository) *AccountServiceImpl {
	return &AccountServiceImpl{accounts: accounts}
}

func (s *AccountServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.accounts.Balance(ctx, userID)
}

func (s *AccountServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*model.Account, error) {
	return s.accounts.GetByID(ctx, userID)
}

func (s *AccountServiceImpl) ListTenants(ctx context.Context, landlordID uuid.UUID, limit, offset int) ([]model.Account, error) {
	return s.accounts.ListTenants(ctx, landlordID, limit, offset)
}
