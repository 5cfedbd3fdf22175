// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account is a credential-bearing user record.
type Account struct {
	ID           ulid.ULID
	Email        string
	NationalID   string
	PasswordHash string
	Name         string
	LastName     string
	IsActive     bool
	// Reset is non-nil only while a password reset is pending.
	Reset     *ResetChallenge
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetChallenge is a pending one-time passcode and the instant it stops being valid.
type ResetChallenge struct {
	Code      int
	ExpiresAt time.Time
}

// ExpiredAt reports whether the challenge is no longer redeemable at now.
// The expiry instant itself is still valid.
func (c ResetChallenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NewAccount creates an active Account with a fresh ID.
// passwordHash must already be the output of a PasswordHasher.
func NewAccount(email, nationalID, name, lastName, passwordHash string, now time.Time) (*Account, error) {
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code("ACCOUNT_INVALID").With("field", "email").Errorf("email cannot be empty")
	}
	if strings.TrimSpace(nationalID) == "" {
		return nil, oops.Code("ACCOUNT_INVALID").With("field", "nationalId").Errorf("national ID cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID").With("field", "password").Errorf("password hash cannot be empty")
	}

	now = now.UTC()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		NationalID:   nationalID,
		PasswordHash: passwordHash,
		Name:         name,
		LastName:     lastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Profile returns the sanitized view of the account.
func (a *Account) Profile() *Profile {
	p := &Profile{
		ID:         a.ID.String(),
		Email:      a.Email,
		NationalID: a.NationalID,
		Name:       a.Name,
		LastName:   a.LastName,
		IsActive:   a.IsActive,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Reset != nil {
		expires := a.Reset.ExpiresAt
		p.ResetPendingUntil = &expires
	}
	return p
}

// Profile is the outward representation of an Account.
// It omits the password hash and the reset code.
type Profile struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	NationalID        string     `json:"nationalId"`
	Name              string     `json:"name"`
	LastName          string     `json:"lastName"`
	IsActive          bool       `json:"isActive"`
	ResetPendingUntil *time.Time `json:"resetPendingUntil,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// NewAccountRequest holds the caller-supplied fields for CreateAccount.
type NewAccountRequest struct {
	Email      string
	NationalID string
	Name       string
	LastName   string
	Password   string
}

// ProfileUpdate is a sparse set of profile changes.
// Nil or empty fields leave the stored value untouched.
// It never touches the password hash or the activation flag.
type ProfileUpdate struct {
	Email      *string `json:"email,omitempty"`
	NationalID *string `json:"nationalId,omitempty"`
	Name       *string `json:"name,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
}

// ApplyTo merges the non-empty fields into a and reports whether anything changed.
func (u ProfileUpdate) ApplyTo(a *Account) bool {
	changed := false
	merge := func(dst *string, src *string) {
		if src == nil || *src == "" || *dst == *src {
			return
		}
		*dst = *src
		changed = true
	}
	merge(&a.Email, u.Email)
	merge(&a.NationalID, u.NationalID)
	merge(&a.Name, u.Name)
	merge(&a.LastName, u.LastName)
	return changed
}

// Result is the envelope returned by every Service operation.
type Result struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Reason  string     `json:"reason,omitempty"`
	Data    ResultData `json:"data"`
}

// ResultData carries the payload of a Result.
type ResultData struct {
	Account            *Profile `json:"account,omitempty"`
	ChallengeDelivered *bool    `json:"challengeDelivered,omitempty"`
}

// ReasonInvalidOrExpiredChallenge marks a redemption that matched no live challenge.
const ReasonInvalidOrExpiredChallenge = "INVALID_OR_EXPIRED_CHALLENGE"

func successResult(message string, a *Account) *Result {
	return &Result{
		Success: true,
		Message: message,
		Data:    ResultData{Account: a.Profile()},
	}
}
