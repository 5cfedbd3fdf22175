// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/pkg/errutil"
)

var (
	columns = []string{
		"id", "email", "national_id", "password_hash", "name", "last_name",
		"is_active", "reset_code", "reset_expires_at", "created_at", "updated_at",
	}
	fixedTime = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
)

func sampleAccount() *account.Account {
	return &account.Account{
		ID:           ulid.Make(),
		Email:        "a@x.com",
		NationalID:   "123",
		PasswordHash: "digest",
		Name:         "Ada",
		LastName:     "Lovelace",
		IsActive:     true,
		CreatedAt:    fixedTime,
		UpdatedAt:    fixedTime,
	}
}

func accountRow(a *account.Account) *pgxmock.Rows {
	var (
		code    *int
		expires *time.Time
	)
	if a.Reset != nil {
		c, e := a.Reset.Code, a.Reset.ExpiresAt
		code, expires = &c, &e
	}
	return pgxmock.NewRows(columns).AddRow(
		a.ID.String(), a.Email, a.NationalID, a.PasswordHash, a.Name, a.LastName,
		a.IsActive, code, expires, a.CreatedAt, a.UpdatedAt,
	)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return mock
}

func TestRepository_Create(t *testing.T) {
	uniqueErr := func(constraint string) error {
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint}
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, a *account.Account)
		wantErr   error
		wantCode  string
		wantField string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, a *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(a.ID.String(), a.Email, a.NationalID, a.PasswordHash, a.Name, a.LastName,
						true, (*int)(nil), (*time.Time)(nil), a.CreatedAt, a.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface, _ *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(uniqueErr(constraintEmail))
			},
			wantErr:   account.ErrDuplicate,
			wantCode:  "ACCOUNT_DUPLICATE",
			wantField: "email",
		},
		{
			name: "duplicate national id",
			setupMock: func(mock pgxmock.PgxPoolIface, _ *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(uniqueErr(constraintNationalID))
			},
			wantErr:   account.ErrDuplicate,
			wantCode:  "ACCOUNT_DUPLICATE",
			wantField: "nationalId",
		},
		{
			name: "connection failure",
			setupMock: func(mock pgxmock.PgxPoolIface, _ *account.Account) {
				mock.ExpectExec(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "ACCOUNT_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			a := sampleAccount()
			tt.setupMock(mock, a)

			err := NewRepository(mock).Create(context.Background(), a)

			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, account.ConflictField(err))
			}
		})
	}
}

func TestRepository_GetByEmail(t *testing.T) {
	t.Run("found without pending reset", func(t *testing.T) {
		mock := newMock(t)
		want := sampleAccount()
		mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
			WithArgs("a@x.com").
			WillReturnRows(accountRow(want))

		got, err := NewRepository(mock).GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("found with pending reset", func(t *testing.T) {
		mock := newMock(t)
		want := sampleAccount()
		want.Reset = &account.ResetChallenge{Code: 654321, ExpiresAt: fixedTime.Add(5 * time.Minute)}
		mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
			WithArgs("a@x.com").
			WillReturnRows(accountRow(want))

		got, err := NewRepository(mock).GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, got.Reset)
		assert.Equal(t, 654321, got.Reset.Code)
		assert.Equal(t, fixedTime.Add(5*time.Minute), got.Reset.ExpiresAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
			WithArgs("nobody@x.com").
			WillReturnError(pgx.ErrNoRows)

		got, err := NewRepository(mock).GetByEmail(context.Background(), "nobody@x.com")
		assert.Nil(t, got)
		require.ErrorIs(t, err, account.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("query failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
			WithArgs("a@x.com").
			WillReturnError(errors.New("connection refused"))

		_, err := NewRepository(mock).GetByEmail(context.Background(), "a@x.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, account.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_GET_BY_EMAIL_FAILED")
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock := newMock(t)
		rows := pgxmock.NewRows(columns).AddRow(
			"not-a-ulid", "a@x.com", "123", "digest", "", "",
			true, (*int)(nil), (*time.Time)(nil), fixedTime, fixedTime,
		)
		mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
			WithArgs("a@x.com").
			WillReturnRows(rows)

		_, err := NewRepository(mock).GetByEmail(context.Background(), "a@x.com")
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "id", "not-a-ulid")
	})
}

func TestRepository_GetByNationalID(t *testing.T) {
	mock := newMock(t)
	want := sampleAccount()
	mock.ExpectQuery(`FROM accounts\s+WHERE national_id = \$1`).
		WithArgs("123").
		WillReturnRows(accountRow(want))
	mock.ExpectQuery(`FROM accounts\s+WHERE national_id = \$1`).
		WithArgs("999").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)
	got, err := repo.GetByNationalID(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)

	_, err = repo.GetByNationalID(context.Background(), "999")
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestRepository_GetByEmailAndResetCode(t *testing.T) {
	mock := newMock(t)
	want := sampleAccount()
	want.Reset = &account.ResetChallenge{Code: 111222, ExpiresAt: fixedTime}
	mock.ExpectQuery(`WHERE email = \$1 AND reset_code = \$2`).
		WithArgs("a@x.com", 111222).
		WillReturnRows(accountRow(want))
	mock.ExpectQuery(`WHERE email = \$1 AND reset_code = \$2`).
		WithArgs("a@x.com", 999999).
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepository(mock)
	got, err := repo.GetByEmailAndResetCode(context.Background(), "a@x.com", 111222)
	require.NoError(t, err)
	assert.Equal(t, want.Reset, got.Reset)

	_, err = repo.GetByEmailAndResetCode(context.Background(), "a@x.com", 999999)
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestRepository_Update(t *testing.T) {
	t.Run("writes challenge columns", func(t *testing.T) {
		mock := newMock(t)
		a := sampleAccount()
		a.Reset = &account.ResetChallenge{Code: 123456, ExpiresAt: fixedTime.Add(time.Minute)}
		code, expires := 123456, fixedTime.Add(time.Minute)

		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(a.ID.String(), a.Email, a.NationalID, a.PasswordHash, a.Name, a.LastName,
				true, &code, &expires, a.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewRepository(mock).Update(context.Background(), a))
	})

	t.Run("clears challenge columns", func(t *testing.T) {
		mock := newMock(t)
		a := sampleAccount()
		a.IsActive = false

		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(a.ID.String(), a.Email, a.NationalID, a.PasswordHash, a.Name, a.LastName,
				false, (*int)(nil), (*time.Time)(nil), a.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewRepository(mock).Update(context.Background(), a))
	})

	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		a := sampleAccount()
		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewRepository(mock).Update(context.Background(), a)
		require.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("email collision", func(t *testing.T) {
		mock := newMock(t)
		a := sampleAccount()
		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraintEmail})

		err := NewRepository(mock).Update(context.Background(), a)
		require.ErrorIs(t, err, account.ErrDuplicate)
		assert.Equal(t, "email", account.ConflictField(err))
	})
}

func TestFieldForConstraint(t *testing.T) {
	assert.Equal(t, "email", fieldForConstraint(constraintEmail))
	assert.Equal(t, "nationalId", fieldForConstraint(constraintNationalID))
	assert.Equal(t, "accounts_pkey", fieldForConstraint("accounts_pkey"))
}
