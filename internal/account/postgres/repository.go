// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package postgres implements account.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// poolIface is the subset of *pgxpool.Pool the repository needs.
// pgxmock.PgxPoolIface satisfies it for unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Unique constraint names from the accounts migration.
const (
	constraintEmail      = "accounts_email_key"
	constraintNationalID = "accounts_national_id_key"
)

const selectAccount = `
	SELECT id, email, national_id, password_hash, name, last_name,
	       is_active, reset_code, reset_expires_at, created_at, updated_at
	FROM accounts
`

// Repository implements account.Repository using PostgreSQL.
type Repository struct {
	pool poolIface
}

// NewRepository creates a new Repository.
func NewRepository(pool poolIface) *Repository {
	return &Repository{pool: pool}
}

// Create stores a new account.
func (r *Repository) Create(ctx context.Context, a *account.Account) error {
	code, expires := resetColumns(a)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, national_id, password_hash, name, last_name,
			is_active, reset_code, reset_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		a.ID.String(),
		a.Email,
		a.NationalID,
		a.PasswordHash,
		a.Name,
		a.LastName,
		a.IsActive,
		code,
		expires,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return writeError(err, "ACCOUNT_CREATE_FAILED", "insert account", a.ID)
	}
	return nil
}

// GetByEmail retrieves an account by exact email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`WHERE email = $1`, email)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return a, nil
}

// GetByNationalID retrieves an account by national ID.
func (r *Repository) GetByNationalID(ctx context.Context, nationalID string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`WHERE national_id = $1`, nationalID)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("national_id", nationalID).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_NATIONAL_ID_FAILED").
			With("operation", "get account by national id").
			Wrap(err)
	}
	return a, nil
}

// GetByEmailAndResetCode retrieves the account whose email and pending code both match.
func (r *Repository) GetByEmailAndResetCode(ctx context.Context, email string, code int) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, selectAccount+`WHERE email = $1 AND reset_code = $2`, email, code)

	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_RESET_CODE_FAILED").
			With("operation", "get account by reset code").
			Wrap(err)
	}
	return a, nil
}

// Update overwrites the mutable columns of an existing account.
func (r *Repository) Update(ctx context.Context, a *account.Account) error {
	code, expires := resetColumns(a)
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			email = $2,
			national_id = $3,
			password_hash = $4,
			name = $5,
			last_name = $6,
			is_active = $7,
			reset_code = $8,
			reset_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		a.ID.String(),
		a.Email,
		a.NationalID,
		a.PasswordHash,
		a.Name,
		a.LastName,
		a.IsActive,
		code,
		expires,
		a.UpdatedAt,
	)
	if err != nil {
		return writeError(err, "ACCOUNT_UPDATE_FAILED", "update account", a.ID)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", a.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// resetColumns splits the challenge into its two nullable columns.
func resetColumns(a *account.Account) (*int, *time.Time) {
	if a.Reset == nil {
		return nil, nil
	}
	code := a.Reset.Code
	expires := a.Reset.ExpiresAt
	return &code, &expires
}

// writeError maps unique violations to account.ErrDuplicate and wraps everything else.
func writeError(err error, code, operation string, id ulid.ULID) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return oops.Code("ACCOUNT_DUPLICATE").
			With("field", fieldForConstraint(pgErr.ConstraintName)).
			With("constraint", pgErr.ConstraintName).
			Wrap(account.ErrDuplicate)
	}
	return oops.Code(code).
		With("operation", operation).
		With("id", id.String()).
		Wrap(err)
}

func fieldForConstraint(name string) string {
	switch name {
	case constraintEmail:
		return "email"
	case constraintNationalID:
		return "nationalId"
	default:
		return name
	}
}

// scanAccount reads one account row. pgx.ErrNoRows is returned unchanged.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr     string
		a         account.Account
		resetCode *int
		resetExp  *time.Time
	)

	err := row.Scan(
		&idStr,
		&a.Email,
		&a.NationalID,
		&a.PasswordHash,
		&a.Name,
		&a.LastName,
		&a.IsActive,
		&resetCode,
		&resetExp,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, oops.With("operation", "scan account").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	a.ID = id

	if resetCode != nil && resetExp != nil {
		a.Reset = &account.ResetChallenge{Code: *resetCode, ExpiresAt: resetExp.UTC()}
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

var _ account.Repository = (*Repository)(nil)
