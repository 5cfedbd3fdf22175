// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package notify delivers account messages to their recipients.
//
// BrevoNotifier sends transactional email through the Brevo HTTP API.
// LogNotifier writes messages to a slog.Logger and is meant for local
// development where no mail provider is configured.
package notify
