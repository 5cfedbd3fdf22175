// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package account manages credentials and account state.
//
// # Domain Types
//
// Account is the only entity. Create new records with NewAccount, which
// validates identifiers and requires an already hashed password. Outward
// representations use Profile, which never carries the password hash.
//
// # Service
//
// Service orchestrates the account lifecycle:
//   - CreateAccount and Authenticate
//   - LookupByEmail and LookupByNationalID
//   - UpdateProfile (sparse merge) and Deactivate
//   - InitiatePasswordReset and RedeemPasswordReset (OTP challenge)
//
// Storage and delivery are supplied through the Repository and Notifier
// interfaces; hashing and challenge generation through PasswordHasher and
// ChallengeGenerator.
package account
