// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/accountd/accountd/internal/account"
)

// DefaultBrevoURL is the Brevo transactional email endpoint.
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// DefaultSenderName is used when no sender name is configured.
const DefaultSenderName = "Support"

const (
	defaultTimeout    = 15 * time.Second
	defaultAttempts   = 3
	defaultBackoff    = 200 * time.Millisecond
	maxBackoff        = 2 * time.Second
	maxErrorBodyBytes = 1 << 10
)

// BrevoConfig configures a BrevoNotifier.
type BrevoConfig struct {
	APIKey      string
	BaseURL     string
	SenderEmail string
	SenderName  string
	// Attempts bounds delivery tries, including the first one.
	Attempts int
	// Backoff is the initial delay between attempts.
	Backoff    time.Duration
	HTTPClient *http.Client
}

// BrevoNotifier sends account messages as Brevo transactional email.
type BrevoNotifier struct {
	apiKey   string
	baseURL  string
	sender   brevoContact
	attempts int
	backoff  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmail struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

// NewBrevoNotifier validates cfg and fills in defaults.
func NewBrevoNotifier(cfg BrevoConfig, logger *slog.Logger) (*BrevoNotifier, error) {
	if cfg.APIKey == "" {
		return nil, oops.Code("CONFIG_INVALID").With("field", "BREVO_API_KEY").Errorf("brevo api key is required")
	}
	if cfg.SenderEmail == "" {
		return nil, oops.Code("CONFIG_INVALID").With("field", "mail-from").Errorf("sender email is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBrevoURL
	}
	if cfg.SenderName == "" {
		cfg.SenderName = DefaultSenderName
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &BrevoNotifier{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		sender:   brevoContact{Name: cfg.SenderName, Email: cfg.SenderEmail},
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
		client:   cfg.HTTPClient,
		logger:   logger,
	}, nil
}

// Send delivers msg. Server errors and transport failures are retried with
// exponential backoff; a 4xx response fails immediately.
// The message body is never logged since it carries the reset code.
func (n *BrevoNotifier) Send(ctx context.Context, msg account.Message) error {
	if msg.To == "" {
		return oops.Code("NOTIFY_REJECTED").Errorf("message has no recipient")
	}

	payload, err := json.Marshal(brevoEmail{
		Sender:      n.sender,
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	})
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("operation", "encode email").Wrap(err)
	}

	backoff := retry.WithCappedDuration(maxBackoff, retry.NewExponential(n.backoff))
	backoff = retry.WithMaxRetries(uint64(n.attempts-1), backoff) //nolint:gosec // attempts validated positive

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := n.post(ctx, payload)
		if err == nil {
			return nil
		}
		if isRejected(err) {
			return err
		}
		n.logger.WarnContext(ctx, "email delivery attempt failed",
			"attempt", attempt,
			"max_attempts", n.attempts,
			"error", err)
		return retry.RetryableError(err)
	})
}

func (n *BrevoNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(payload))
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("operation", "build request").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("operation", "post email").Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // best effort detail
	code := "NOTIFY_SEND_FAILED"
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		code = "NOTIFY_REJECTED"
	}
	return oops.Code(code).
		With("status", resp.StatusCode).
		With("body", string(body)).
		Errorf("brevo responded with status %d", resp.StatusCode)
}

func isRejected(err error) bool {
	e, ok := oops.AsOops(err)
	return ok && e.Code() == "NOTIFY_REJECTED"
}

var _ account.Notifier = (*BrevoNotifier)(nil)
