// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package memory provides an in-process account.Repository.
package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// Repository keeps accounts in memory. Values are copied on the way in and out.
type Repository struct {
	mu           sync.RWMutex
	byID         map[ulid.ULID]*account.Account
	idByEmail    map[string]ulid.ULID
	idByNational map[string]ulid.ULID
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		byID:         make(map[ulid.ULID]*account.Account),
		idByEmail:    make(map[string]ulid.ULID),
		idByNational: make(map[string]ulid.ULID),
	}
}

func clone(a *account.Account) *account.Account {
	c := *a
	if a.Reset != nil {
		r := *a.Reset
		c.Reset = &r
	}
	return &c
}

func duplicate(field string) error {
	return oops.Code("ACCOUNT_DUPLICATE").With("field", field).Wrap(account.ErrDuplicate)
}

// Create inserts a new account.
func (r *Repository) Create(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.idByEmail[a.Email]; taken {
		return duplicate("email")
	}
	if _, taken := r.idByNational[a.NationalID]; taken {
		return duplicate("nationalId")
	}
	if _, taken := r.byID[a.ID]; taken {
		return duplicate("id")
	}

	r.byID[a.ID] = clone(a)
	r.idByEmail[a.Email] = a.ID
	r.idByNational[a.NationalID] = a.ID
	return nil
}

// GetByEmail retrieves an account by email.
func (r *Repository) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.idByEmail, email)
}

// GetByNationalID retrieves an account by national ID.
func (r *Repository) GetByNationalID(_ context.Context, nationalID string) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.idByNational, nationalID)
}

// GetByEmailAndResetCode retrieves the account with a pending reset matching code.
func (r *Repository) GetByEmailAndResetCode(_ context.Context, email string, code int) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, err := r.lookup(r.idByEmail, email)
	if err != nil {
		return nil, err
	}
	if a.Reset == nil || a.Reset.Code != code {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(account.ErrNotFound)
	}
	return a, nil
}

// Update overwrites an existing account, keeping the unique indexes consistent.
func (r *Repository) Update(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[a.ID]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", a.ID.String()).Wrap(account.ErrNotFound)
	}
	if id, taken := r.idByEmail[a.Email]; taken && id != a.ID {
		return duplicate("email")
	}
	if id, taken := r.idByNational[a.NationalID]; taken && id != a.ID {
		return duplicate("nationalId")
	}

	delete(r.idByEmail, current.Email)
	delete(r.idByNational, current.NationalID)
	r.byID[a.ID] = clone(a)
	r.idByEmail[a.Email] = a.ID
	r.idByNational[a.NationalID] = a.ID
	return nil
}

// Len returns the number of stored accounts.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Repository) lookup(index map[string]ulid.ULID, key string) (*account.Account, error) {
	id, ok := index[key]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("key", key).Wrap(account.ErrNotFound)
	}
	return clone(r.byID[id]), nil
}

var _ account.Repository = (*Repository)(nil)
