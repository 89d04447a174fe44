package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/limiter"
	"github.com/rentshield/rewards/internal/model"
)

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	accounts := &fakeAccounts{byID: map[uuid.UUID]*model.Account{}}
	s := NewAuthService(accounts, []byte("k"), time.Minute, &fakeLimiter{})
	ctx := context.Background()

	if _, err := s.RegisterLandlord(ctx, "", "", ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on empty fields, got %v", err)
	}
	if _, err := s.RegisterLandlord(ctx, "Lena", "not-an-email", "Passw0rd!"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on malformed email, got %v", err)
	}
	for _, weak := range []string{"short1A", "alllower1", "ALLUPPER1", "NoDigitsHere"} {
		if _, err := s.RegisterLandlord(ctx, "Lena", "l@example.com", weak); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("password %q accepted", weak)
		}
	}

	a, err := s.RegisterLandlord(ctx, " Lena ", " L@Example.COM ", "Passw0rd!")
	if err != nil {
		t.Fatalf("RegisterLandlord: %v", err)
	}
	if a.Email != "l@example.com" || a.Name != "Lena" || a.Role != model.RoleLandlord {
		t.Fatalf("bad account: %+v", a)
	}

	if _, err := s.RegisterLandlord(ctx, "Lena", "l@example.com", "Passw0rd!"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}

	tenant, err := s.RegisterTenant(ctx, a.ID, "Tom", "tom@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("RegisterTenant: %v", err)
	}
	if !tenant.LandlordID.Valid || tenant.LandlordID.UUID != a.ID || tenant.Role != model.RoleTenant {
		t.Fatalf("tenant not attached to landlord: %+v", tenant)
	}
}

func TestAuth_LoginWithIP_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()
	accounts := &fakeAccounts{byID: map[uuid.UUID]*model.Account{}}
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(accounts, []byte("secret"), 2*time.Minute, lim)
	ctx := context.Background()

	a, err := s.RegisterLandlord(ctx, "Lena", "l@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.LoginWithIP(ctx, "l@example.com", "Passw0rd!", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagated")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.LoginWithIP(ctx, "l@example.com", "Passw0rd!", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, _, err := s.LoginWithIP(ctx, "nobody@example.com", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing user, got %v", err)
	}

	lim.failBlocked = true
	if _, _, err := s.LoginWithIP(ctx, "l@example.com", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited once blocked, got %v", err)
	}
	lim.failBlocked = false

	if _, _, err := s.LoginWithIP(ctx, "l@example.com", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	tokens, got, err := s.LoginWithIP(ctx, " L@example.com ", "Passw0rd!", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("LoginWithIP: %v", err)
	}
	if tokens.AccessToken == "" || tokens.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad tokens: %+v", tokens)
	}
	if got.ID != a.ID {
		t.Fatalf("wrong account returned: %+v", got)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
}

func TestAuth_ParseToken_RoundTripAndRejection(t *testing.T) {
	t.Parallel()
	accounts := &fakeAccounts{byID: map[uuid.UUID]*model.Account{}}
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(accounts, []byte("secret"), 2*time.Minute, lim)
	ctx := context.Background()

	a, err := s.RegisterLandlord(ctx, "Lena", "l@example.com", "Passw0rd!")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tokens, _, err := s.LoginWithIP(ctx, "l@example.com", "Passw0rd!", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	id, role, err := s.ParseToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if id != a.ID || role != model.RoleLandlord {
		t.Fatalf("bad claims: %s %s", id, role)
	}

	if _, _, err := s.ParseToken("garbage"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on garbage token, got %v", err)
	}

	// A token signed with another key fails verification.
	other := NewAuthService(accounts, []byte("other"), 2*time.Minute, lim)
	if _, _, err := other.ParseToken(tokens.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on foreign signature, got %v", err)
	}
}

func TestAuth_EnsureAdmin_Idempotent(t *testing.T) {
	t.Parallel()
	accounts := &fakeAccounts{byID: map[uuid.UUID]*model.Account{}}
	s := NewAuthService(accounts, []byte("k"), time.Minute, &fakeLimiter{})
	ctx := context.Background()

	if err := s.EnsureAdmin(ctx, "Administrator", "admin@example.com", "Passw0rd!"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if err := s.EnsureAdmin(ctx, "Administrator", "admin@example.com", "Passw0rd!"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}

	a, err := accounts.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("admin missing: %v", err)
	}
	if a.Role != model.RoleAdmin {
		t.Fatalf("want admin role, got %s", a.Role)
	}
}
