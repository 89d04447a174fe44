// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input rejected before any store access.
	ErrValidation = errors.New("validation")

	// ErrAlreadyVerified indicates a task verification lost the conditional-update
	// race: the task was no longer in submitted state when the update ran.
	ErrAlreadyVerified = errors.New("already verified")

	// ErrInsufficientPoints indicates the balance guard of the atomic adjust
	// matched no row (the debit would have gone negative).
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrSoldOut indicates the stock guard matched no row (claimed_count reached
	// available_quantity).
	ErrSoldOut = errors.New("sold out")

	// ErrNotEligible indicates the caller is outside the landlord/tenant
	// relationship the entity belongs to.
	ErrNotEligible = errors.New("not eligible")

	// ErrInvalidState indicates a lifecycle transition attempted from a state
	// that does not permit it (e.g. submitting proof for an approved task).
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g. email taken,
	// or a ledger entry already recorded for the same reference).
	ErrAlreadyExists = errors.New("already exists")
)
