// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by a Repository when a unique field is already taken.
// The offending field is attached as the "field" oops context value.
var ErrDuplicate = errors.New("duplicate")

// Error codes surfaced by Service.
const (
	CodeNotFound           = "ACCOUNT_NOT_FOUND"
	CodeConflict           = "ACCOUNT_CONFLICT"
	CodeDisabled           = "ACCOUNT_DISABLED"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalid            = "ACCOUNT_INVALID"
	CodeInternal           = "ACCOUNT_INTERNAL"
)

// Kind classifies a Service failure.
type Kind int

// Failure kinds.
const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindInvalidCredentials
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// KindOf classifies err. Anything without a recognised code is KindInternal.
func KindOf(err error) Kind {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	switch oopsErr.Code() {
	case CodeNotFound:
		return KindNotFound
	case CodeConflict:
		return KindConflict
	case CodeDisabled:
		return KindUnauthorized
	case CodeInvalidCredentials:
		return KindInvalidCredentials
	case CodeInvalid:
		return KindInvalid
	default:
		return KindInternal
	}
}

// ConflictField returns the field named by a duplicate or conflict error.
func ConflictField(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if field, ok := oopsErr.Context()["field"].(string); ok {
		return field
	}
	return ""
}
