// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import (
	"fmt"
	"html"
	"time"
)

const resetSubject = "Your password reset code"

// resetMessage builds the notification carrying a reset code.
func resetMessage(a *Account, c ResetChallenge) Message {
	minutes := int(ChallengeValidity / time.Minute)
	greeting := "Hello"
	if a.Name != "" {
		greeting = "Hello " + a.Name
	}

	text := fmt.Sprintf(
		"%s,\n\nYour password reset code is %06d. It expires in %d minutes.\n\n"+
			"If you did not request a reset you can ignore this message.\n",
		greeting, c.Code, minutes,
	)
	htmlBody := fmt.Sprintf(
		"<p>%s,</p><p>Your password reset code is <strong>%06d</strong>. It expires in %d minutes.</p>"+
			"<p>If you did not request a reset you can ignore this message.</p>",
		html.EscapeString(greeting), c.Code, minutes,
	)

	return Message{
		To:       a.Email,
		Subject:  resetSubject,
		HTMLBody: htmlBody,
		TextBody: text,
	}
}
