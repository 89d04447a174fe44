package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/rentshield/rewards/internal/crypto"
	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/limiter"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/repository"
)

// AuthService manages account creation, login, and access tokens.
type AuthService interface {
	// RegisterLandlord creates a landlord account (admin operation).
	RegisterLandlord(ctx context.Context, name, email, password string) (*model.Account, error)
	// RegisterTenant creates a tenant account under the landlord.
	RegisterTenant(ctx context.Context, landlordID uuid.UUID, name, email, password string) (*model.Account, error)
	// LoginWithIP applies rate limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.Account, error)
	// ParseToken validates an access token and returns its subject and role.
	ParseToken(token string) (uuid.UUID, model.Role, error)
}

type AuthServiceImpl struct {
	accounts  repository.AccountRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts repository.AccountRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{accounts: accounts, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// validatePassword enforces minimum strength: 8+ chars with upper, lower and
// digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", errs.ErrValidation)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password must contain an uppercase letter, a lowercase letter and a digit", errs.ErrValidation)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthServiceImpl) register(ctx context.Context, role model.Role, landlordID uuid.NullUUID, name, email, password string) (*model.Account, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email required", errs.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", errs.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := pkgcrypto.HashPassword([]byte(password))
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	a := &model.Account{
		ID:         id,
		Email:      email,
		Name:       name,
		Role:       role,
		PwdHash:    hash,
		LandlordID: landlordID,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RegisterLandlord creates a landlord account.
func (s *AuthServiceImpl) RegisterLandlord(ctx context.Context, name, email, password string) (*model.Account, error) {
	return s.register(ctx, model.RoleLandlord, uuid.NullUUID{}, name, email, password)
}

// RegisterTenant creates a tenant account attached to the landlord.
func (s *AuthServiceImpl) RegisterTenant(ctx context.Context, landlordID uuid.UUID, name, email, password string) (*model.Account, error) {
	return s.register(ctx, model.RoleTenant, uuid.NullUUID{UUID: landlordID, Valid: true}, name, email, password)
}

// EnsureAdmin creates the bootstrap admin account unless it already exists.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	_, err = s.register(ctx, model.RoleAdmin, uuid.NullUUID{}, name, email, password)
	return err
}

// LoginWithIP authenticates with rate limiting keyed by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.Account, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	if !allowed {
		return model.Tokens{}, nil, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), a.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, nil, errs.ErrRateLimited
		}
		// Lookup errors and bad passwords both mask as unauthorized so the
		// response never leaks whether the email exists.
		return model.Tokens{}, nil, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	tokens, err := s.issueAccessToken(a.ID, a.Role)
	if err != nil {
		return model.Tokens{}, nil, err
	}
	return tokens, a, nil
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID, role model.Role) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: string(role),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// ParseToken validates the signature and expiry and returns subject and role.
func (s *AuthServiceImpl) ParseToken(token string) (uuid.UUID, model.Role, error) {
	var claims accessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, "", errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, "", errs.ErrUnauthorized
	}
	switch model.Role(claims.Role) {
	case model.RoleAdmin, model.RoleLandlord, model.RoleTenant:
		return id, model.Role(claims.Role), nil
	default:
		return uuid.Nil, "", errs.ErrUnauthorized
	}
}
