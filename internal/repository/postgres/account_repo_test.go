package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/rentshield/rewards/internal/errs"
	"github.com/rentshield/rewards/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestAccountRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	a := &model.Account{
		ID:      uuid.Must(uuid.NewV4()),
		Email:   "t@example.com",
		Name:    "Tenant",
		Role:    model.RoleTenant,
		PwdHash: []byte("h"),
	}

	// OK
	mock.ExpectExec(`INSERT INTO users \(id, email, name, role, pwd_hash, landlord_id\)`).
		WithArgs(a.ID, a.Email, a.Name, string(a.Role), a.PwdHash, a.LandlordID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, a))

	// Duplicate email
	mock.ExpectExec(`INSERT INTO users \(id, email, name, role, pwd_hash, landlord_id\)`).
		WithArgs(a.ID, a.Email, a.Name, string(a.Role), a.PwdHash, a.LandlordID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, a), errs.ErrAlreadyExists)
}

func TestAccountRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, email, name, role, pwd_hash, landlord_id, points, created_at FROM users WHERE email=\$1`).
		WithArgs("none@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err := r.GetByEmail(ctx, "none@example.com")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAccountRepo_Adjust_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	ref := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE users SET points = points \+ \$2`).
		WithArgs(userID, int64(25), pgxmock.AnyArg(), "task_award", ref).
		WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(int64(125)))

	balance, err := r.Adjust(ctx, userID, 25, model.EntryTaskAward, ref)
	require.NoError(t, err)
	require.Equal(t, int64(125), balance)
}

func TestAccountRepo_Adjust_InsufficientBalance(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	ref := uuid.Must(uuid.NewV4())

	// The balance guard matches no row, so nothing comes back.
	mock.ExpectQuery(`UPDATE users SET points = points \+ \$2`).
		WithArgs(userID, int64(-500), pgxmock.AnyArg(), "perk_debit", ref).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Adjust(ctx, userID, -500, model.EntryPerkDebit, ref)
	require.ErrorIs(t, err, errs.ErrInsufficientPoints)
}

func TestAccountRepo_Adjust_DuplicateRef(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	ref := uuid.Must(uuid.NewV4())

	// An entry for (kind, ref) already landed.
	mock.ExpectQuery(`UPDATE users SET points = points \+ \$2`).
		WithArgs(userID, int64(25), pgxmock.AnyArg(), "task_award", ref).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := r.Adjust(ctx, userID, 25, model.EntryTaskAward, ref)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestAccountRepo_Balance(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT points FROM users WHERE id=\$1`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"points"}).AddRow(int64(40)))
	balance, err := r.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(40), balance)

	mock.ExpectQuery(`SELECT points FROM users WHERE id=\$1`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Balance(ctx, userID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAccountRepo_ListOrphanedDebits(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAccountRepo(db)
	ctx := context.Background()
	cutoff := time.Now().Add(-10 * time.Minute)
	ref := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM point_entries e`).
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows([]string{"ref", "user_id", "amount"}).
			AddRow(ref, userID, int64(30)))

	out, err := r.ListOrphanedDebits(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, ref, out[0].Ref)
	require.Equal(t, userID, out[0].UserID)
	require.Equal(t, int64(30), out[0].Amount)
}
