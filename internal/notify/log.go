// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package notify

import (
	"context"
	"log/slog"

	"github.com/accountd/accountd/internal/account"
)

// LogNotifier writes messages to a logger instead of delivering them.
// The text body is logged so a developer can read the reset code.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs msg at info level. It never fails.
func (n *LogNotifier) Send(ctx context.Context, msg account.Message) error {
	n.logger.InfoContext(ctx, "notification",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.TextBody)
	return nil
}

var _ account.Notifier = (*LogNotifier)(nil)
