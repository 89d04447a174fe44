package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
	"github.com/rentshield/rewards/internal/service"
)

type stubAuth struct {
	parse func(string) (uuid.UUID, model.Role, error)
}

var _ service.AuthService = (*stubAuth)(nil)

func (s *stubAuth) RegisterLandlord(context.Context, string, string, string) (*model.Account, error) {
	return nil, errs.ErrValidation
}
func (s *stubAuth) RegisterTenant(context.Context, uuid.UUID, string, string, string) (*model.Account, error) {
	return nil, errs.ErrValidation
}
func (s *stubAuth) LoginWithIP(context.Context, string, string, string) (model.Tokens, *model.Account, error) {
	return model.Tokens{}, nil, errs.ErrUnauthorized
}
func (s *stubAuth) ParseToken(token string) (uuid.UUID, model.Role, error) {
	if s.parse != nil {
		return s.parse(token)
	}
	return uuid.Nil, "", errs.ErrUnauthorized
}

type stubAccounts struct {
	balance func(uuid.UUID) (int64, error)
}

var _ service.AccountService = (*stubAccounts)(nil)

func (s *stubAccounts) Balance(_ context.Context, id uuid.UUID) (int64, error) {
	if s.balance != nil {
		return s.balance(id)
	}
	return 0, errs.ErrNotFound
}
func (s *stubAccounts) Get(context.Context, uuid.UUID) (*model.Account, error) {
	return nil, errs.ErrNotFound
}
func (s *stubAccounts) ListTenants(context.Context, uuid.UUID, int, int) ([]model.Account, error) {
	return nil, nil
}

type stubTasks struct {
	approve func(taskID, landlordID uuid.UUID) (*service.VerifyResult, error)
	reject  func(taskID, landlordID uuid.UUID, reason string) (*model.Task, error)
}

var _ service.TaskService = (*stubTasks)(nil)

func (s *stubTasks) Create(context.Context, uuid.UUID, service.CreateTaskInput) (*model.Task, error) {
	return nil, errs.ErrValidation
}
func (s *stubTasks) Get(context.Context, uuid.UUID, uuid.UUID, model.Role) (*model.Task, error) {
	return nil, errs.ErrNotFound
}
func (s *stubTasks) List(context.Context, uuid.UUID, model.Role, int, int) ([]model.Task, error) {
	return nil, nil
}
func (s *stubTasks) SubmitProof(context.Context, uuid.UUID, uuid.UUID, string) (*model.Task, error) {
	return nil, errs.ErrInvalidState
}
func (s *stubTasks) Approve(_ context.Context, taskID, landlordID uuid.UUID) (*service.VerifyResult, error) {
	if s.approve != nil {
		return s.approve(taskID, landlordID)
	}
	return nil, errs.ErrNotFound
}
func (s *stubTasks) Reject(_ context.Context, taskID, landlordID uuid.UUID, reason string) (*model.Task, error) {
	if s.reject != nil {
		return s.reject(taskID, landlordID, reason)
	}
	return nil, errs.ErrNotFound
}

type stubPerks struct{}

var _ service.PerkService = (*stubPerks)(nil)

func (s *stubPerks) Create(context.Context, uuid.UUID, service.CreatePerkInput) (*model.Perk, error) {
	return nil, errs.ErrValidation
}
func (s *stubPerks) List(context.Context, uuid.UUID, model.Role, int, int) ([]model.Perk, error) {
	return nil, nil
}
func (s *stubPerks) Delete(context.Context, uuid.UUID, uuid.UUID) error { return errs.ErrNotFound }
func (s *stubPerks) Claims(context.Context, uuid.UUID, int, int) ([]model.PerkClaim, error) {
	return nil, nil
}
func (s *stubPerks) Fulfill(context.Context, uuid.UUID, uuid.UUID) error { return errs.ErrNotFound }

type stubRedeem struct {
	claim func(perkID, tenantID uuid.UUID, idemKey string) (*service.ClaimResult, error)
}

var _ service.RedeemService = (*stubRedeem)(nil)

func (s *stubRedeem) Claim(_ context.Context, perkID, tenantID uuid.UUID, idemKey string) (*service.ClaimResult, error) {
	if s.claim != nil {
		return s.claim(perkID, tenantID, idemKey)
	}
	return nil, errs.ErrNotFound
}

type testServer struct {
	srv    *Server
	auth   *stubAuth
	tasks  *stubTasks
	redeem *stubRedeem
	acct   *stubAccounts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth := &stubAuth{}
	tasks := &stubTasks{}
	redeem := &stubRedeem{}
	acct := &stubAccounts{}
	srv := New(auth, acct, tasks, &stubPerks{}, redeem, nil, zap.NewNop())
	return &testServer{srv: srv, auth: auth, tasks: tasks, redeem: redeem, acct: acct}
}

// authAs makes every bearer token resolve to the given identity.
func (ts *testServer) authAs(id uuid.UUID, role model.Role) {
	ts.auth.parse = func(string) (uuid.UUID, model.Role, error) {
		return id, role, nil
	}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_RequireAuth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	h := ts.srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/rewards/balance", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want 401, got %d", rec.Code)
	}

	// Token present but the parser rejects it.
	rec = do(t, h, http.MethodGet, "/api/rewards/balance", "bad", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", rec.Code)
	}

	userID := uuid.Must(uuid.NewV4())
	ts.authAs(userID, model.RoleTenant)
	ts.acct.balance = func(id uuid.UUID) (int64, error) {
		if id != userID {
			t.Fatalf("balance queried for %s, want %s", id, userID)
		}
		return 70, nil
	}

	rec = do(t, h, http.MethodGet, "/api/rewards/balance", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Points != 70 {
		t.Fatalf("want 70 points, got %d", resp.Points)
	}
}

func TestServer_RoleForbidden(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	h := ts.srv.Handler()
	ts.authAs(uuid.Must(uuid.NewV4()), model.RoleTenant)

	// Task creation is landlord-only.
	rec := do(t, h, http.MethodPost, "/api/tasks/", "tok", `{"title":"t"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
}

func TestServer_VerifyTask_ApproveAndConflict(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	h := ts.srv.Handler()
	landlordID := uuid.Must(uuid.NewV4())
	taskID := uuid.Must(uuid.NewV4())
	ts.authAs(landlordID, model.RoleLandlord)

	ts.tasks.approve = func(gotTask, gotLandlord uuid.UUID) (*service.VerifyResult, error) {
		if gotTask != taskID || gotLandlord != landlordID {
			t.Fatalf("approve called with %s/%s", gotTask, gotLandlord)
		}
		return &service.VerifyResult{
			Task:       &model.Task{ID: taskID, LandlordID: landlordID, Status: model.TaskApproved},
			NewBalance: 50,
		}, nil
	}

	rec := do(t, h, http.MethodPost, "/api/tasks/"+taskID.String()+"/verify", "tok", `{"approved":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp verifyTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Task.Status != string(model.TaskApproved) || resp.NewBalance == nil || *resp.NewBalance != 50 {
		t.Fatalf("bad body: %s", rec.Body.String())
	}

	// A concurrent retry that lost the race is a conflict, not a success.
	ts.tasks.approve = func(uuid.UUID, uuid.UUID) (*service.VerifyResult, error) {
		return nil, errs.ErrAlreadyVerified
	}
	rec = do(t, h, http.MethodPost, "/api/tasks/"+taskID.String()+"/verify", "tok", `{"approved":true}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
}

func TestServer_VerifyTask_RejectionReasonValidation(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	h := ts.srv.Handler()
	taskID := uuid.Must(uuid.NewV4())
	ts.authAs(uuid.Must(uuid.NewV4()), model.RoleLandlord)

	ts.tasks.reject = func(_, _ uuid.UUID, reason string) (*model.Task, error) {
		if strings.TrimSpace(reason) == "" {
			return nil, errs.ErrValidation
		}
		return &model.Task{ID: taskID, Status: model.TaskRejected, RejectionReason: reason}, nil
	}

	rec := do(t, h, http.MethodPost, "/api/tasks/"+taskID.String()+"/verify", "tok", `{"approved":false}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: want 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/tasks/"+taskID.String()+"/verify", "tok", `{"approved":false,"reason":"blurry"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_ClaimPerk_TypedOutcomes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	h := ts.srv.Handler()
	perkID := uuid.Must(uuid.NewV4())
	tenantID := uuid.Must(uuid.NewV4())
	claimID := uuid.Must(uuid.NewV4())
	ts.authAs(tenantID, model.RoleTenant)

	ts.redeem.claim = func(gotPerk, gotTenant uuid.UUID, idemKey string) (*service.ClaimResult, error) {
		if gotPerk != perkID || gotTenant != tenantID {
			t.Fatalf("claim called with %s/%s", gotPerk, gotTenant)
		}
		if idemKey != "retry-9" {
			t.Fatalf("idempotency key not forwarded: %q", idemKey)
		}
		return &service.ClaimResult{Status: service.ClaimSuccess, ClaimID: claimID, Balance: 50, Message: "ok"}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/perks/"+perkID.String()+"/claim", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Idempotency-Key", "retry-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp claimPerkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.ClaimID != claimID.String() || resp.RemainingPoints != 50 {
		t.Fatalf("bad body: %s", rec.Body.String())
	}

	// Losing the stock race is still HTTP 200, with a typed failure body.
	ts.redeem.claim = func(uuid.UUID, uuid.UUID, string) (*service.ClaimResult, error) {
		return &service.ClaimResult{Status: service.ClaimSoldOut, Balance: 150, Message: "sold out"}, nil
	}
	rec = do(t, h, http.MethodPost, "/api/perks/"+perkID.String()+"/claim", "tok", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sold out: want 200, got %d", rec.Code)
	}
	resp = claimPerkResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Status != string(service.ClaimSoldOut) || resp.ClaimID != "" {
		t.Fatalf("bad sold-out body: %s", rec.Body.String())
	}

	// Ineligible tenants get a real error status.
	ts.redeem.claim = func(uuid.UUID, uuid.UUID, string) (*service.ClaimResult, error) {
		return nil, errs.ErrNotEligible
	}
	rec = do(t, h, http.MethodPost, "/api/perks/"+perkID.String()+"/claim", "tok", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
}

func TestPagination_Defaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 50, 0},
		{"?page=2", 50, 50},
		{"?page=3&page_size=10", 10, 20},
		{"?page_size=1000", 50, 0}, // above the cap: back to the default
		{"?page=0&page_size=-1", 50, 0},
		{"?page=abc", 50, 0},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
		limit, offset := pagination(req)
		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Fatalf("%q: got (%d,%d), want (%d,%d)", tc.query, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}
