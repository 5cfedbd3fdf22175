// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import "context"

// Repository persists accounts.
// Implementations enforce uniqueness of Email and NationalID.
type Repository interface {
	// Create inserts a new account.
	// Returns ErrDuplicate (with a "field" context value) if email or national ID is taken.
	Create(ctx context.Context, a *Account) error

	// GetByEmail retrieves an account by email.
	// Returns ErrNotFound if no account has that email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByNationalID retrieves an account by national ID.
	// Returns ErrNotFound if no account has that national ID.
	GetByNationalID(ctx context.Context, nationalID string) (*Account, error)

	// GetByEmailAndResetCode retrieves the account whose email and pending reset code both match.
	// Returns ErrNotFound if there is no such pair. Expiry is not checked.
	GetByEmailAndResetCode(ctx context.Context, email string, code int) (*Account, error)

	// Update overwrites every mutable field of an existing account.
	// Returns ErrNotFound if the account is gone and ErrDuplicate on a unique collision.
	Update(ctx context.Context, a *Account) error
}

// Message is an outbound notification.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Notifier delivers messages to an address.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
