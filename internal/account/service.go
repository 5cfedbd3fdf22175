// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/accountd/accountd/pkg/errutil"
)

const tracerName = "github.com/accountd/accountd/internal/account"

// Operation names used for tracing, metrics, and error context.
const (
	OpCreate        = "create_account"
	OpAuthenticate  = "authenticate"
	OpLookupEmail   = "lookup_by_email"
	OpLookupNatID   = "lookup_by_national_id"
	OpUpdateProfile = "update_profile"
	OpDeactivate    = "deactivate"
	OpInitiateReset = "initiate_password_reset"
	OpRedeemReset   = "redeem_password_reset"
)

// Recorder receives per-operation outcomes.
type Recorder interface {
	RecordOperation(operation, outcome string, elapsed time.Duration)
	RecordNotification(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) RecordNotification(string)                     {}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for timestamps and challenge expiry checks.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// Service manages the account lifecycle. It is safe for concurrent use.
type Service struct {
	repo       Repository
	notifier   Notifier
	hasher     PasswordHasher
	challenges ChallengeGenerator
	logger     *slog.Logger
	clock      clockwork.Clock
	recorder   Recorder
	tracer     trace.Tracer
}

// NewService creates a Service. All four collaborators are required.
func NewService(
	repo Repository,
	notifier Notifier,
	hasher PasswordHasher,
	challenges ChallengeGenerator,
	opts ...Option,
) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if challenges == nil {
		return nil, oops.Errorf("challenge generator is required")
	}

	s := &Service{
		repo:       repo,
		notifier:   notifier,
		hasher:     hasher,
		challenges: challenges,
		logger:     slog.Default(),
		clock:      clockwork.NewRealClock(),
		recorder:   nopRecorder{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateAccount hashes the password and stores a new active account.
func (s *Service) CreateAccount(ctx context.Context, req NewAccountRequest) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpCreate)
	defer func() { done(res, err) }()

	if req.Password == "" {
		return nil, oops.Code(CodeInvalid).With("field", "password").Errorf("password cannot be empty")
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, OpCreate, err)
	}

	a, err := NewAccount(req.Email, req.NationalID, req.Name, req.LastName, digest, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, s.storeFailure(ctx, OpCreate, err)
	}

	s.logger.InfoContext(ctx, "account created", "account_id", a.ID.String())
	return successResult("account created", a), nil
}

// Authenticate verifies a password for an active account.
// A disabled account is rejected before the password is compared.
func (s *Service) Authenticate(ctx context.Context, email, password string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpAuthenticate)
	defer func() { done(res, err) }()

	a, err := s.findByEmail(ctx, OpAuthenticate, email)
	if err != nil {
		return nil, err
	}

	if !a.IsActive {
		return nil, oops.Code(CodeDisabled).
			With("account_id", a.ID.String()).
			Errorf("account disabled, contact an administrator")
	}

	match, verifyErr := s.hasher.Verify(password, a.PasswordHash)
	if verifyErr != nil {
		s.logger.WarnContext(ctx, "stored password digest unreadable",
			"account_id", a.ID.String(), "error", verifyErr)
	}
	if !match {
		return nil, oops.Code(CodeInvalidCredentials).Errorf("email and password do not match")
	}

	if s.hasher.NeedsUpgrade(a.PasswordHash) {
		s.upgradeDigest(ctx, a, password)
	}

	return successResult("login successful", a), nil
}

// upgradeDigest rehashes a legacy digest after a successful login.
// Failure is logged and does not affect the login.
func (s *Service) upgradeDigest(ctx context.Context, a *Account, password string) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password digest upgrade failed (best-effort)",
			"account_id", a.ID.String(), "operation", "hash", "error", err)
		return
	}
	upgraded := *a
	upgraded.PasswordHash = digest
	upgraded.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, &upgraded); err != nil {
		s.logger.WarnContext(ctx, "password digest upgrade failed (best-effort)",
			"account_id", a.ID.String(), "operation", "update", "error", err)
		return
	}
	*a = upgraded
	s.logger.InfoContext(ctx, "password digest upgraded", "account_id", a.ID.String())
}

// LookupByEmail returns the account registered with email.
func (s *Service) LookupByEmail(ctx context.Context, email string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpLookupEmail)
	defer func() { done(res, err) }()

	a, err := s.findByEmail(ctx, OpLookupEmail, email)
	if err != nil {
		return nil, err
	}
	return successResult("account found", a), nil
}

// LookupByNationalID returns the account registered with nationalID.
func (s *Service) LookupByNationalID(ctx context.Context, nationalID string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpLookupNatID)
	defer func() { done(res, err) }()

	a, err := s.repo.GetByNationalID(ctx, nationalID)
	if err != nil {
		return nil, s.lookupFailure(ctx, OpLookupNatID, "national ID", nationalID, err)
	}
	return successResult("account found", a), nil
}

// UpdateProfile merges the non-empty fields of update into the account.
func (s *Service) UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpUpdateProfile)
	defer func() { done(res, err) }()

	a, err := s.findByEmail(ctx, OpUpdateProfile, email)
	if err != nil {
		return nil, err
	}

	if !update.ApplyTo(a) {
		return successResult("account unchanged", a), nil
	}
	a.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, s.storeFailure(ctx, OpUpdateProfile, err)
	}
	return successResult("account updated", a), nil
}

// Deactivate disables the account. Deactivating twice is harmless.
func (s *Service) Deactivate(ctx context.Context, email string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpDeactivate)
	defer func() { done(res, err) }()

	a, err := s.findByEmail(ctx, OpDeactivate, email)
	if err != nil {
		return nil, err
	}

	a.IsActive = false
	a.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, s.storeFailure(ctx, OpDeactivate, err)
	}

	s.logger.InfoContext(ctx, "account deactivated", "account_id", a.ID.String())
	return successResult("account deactivated", a), nil
}

// InitiatePasswordReset stores a fresh challenge and then sends it to the account email.
// A delivery failure leaves the stored challenge valid and is reported in the result.
func (s *Service) InitiatePasswordReset(ctx context.Context, email string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpInitiateReset)
	defer func() { done(res, err) }()

	a, err := s.findByEmail(ctx, OpInitiateReset, email)
	if err != nil {
		return nil, err
	}

	challenge, err := s.challenges.Generate()
	if err != nil {
		return nil, s.internal(ctx, OpInitiateReset, err)
	}
	a.Reset = &challenge
	a.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, s.storeFailure(ctx, OpInitiateReset, err)
	}

	delivered := true
	if sendErr := s.notifier.Send(ctx, resetMessage(a, challenge)); sendErr != nil {
		delivered = false
		s.recorder.RecordNotification("failed")
		errutil.LogErrorContext(ctx, s.logger, "reset code delivery failed, challenge remains valid",
			oops.With("operation", OpInitiateReset, "account_id", a.ID.String()).Wrap(sendErr))
	} else {
		s.recorder.RecordNotification("sent")
	}

	res = successResult("password reset code issued", a)
	res.Data.ChallengeDelivered = &delivered
	if !delivered {
		res.Message = "password reset code issued but could not be delivered"
	}
	return res, nil
}

// RedeemPasswordReset replaces the password when code matches a live challenge for email.
// A wrong or expired code is an unsuccessful Result, not an error.
func (s *Service) RedeemPasswordReset(ctx context.Context, email string, code int, newPassword string) (res *Result, err error) {
	ctx, done := s.begin(ctx, OpRedeemReset)
	defer func() { done(res, err) }()

	if newPassword == "" {
		return nil, oops.Code(CodeInvalid).With("field", "password").Errorf("password cannot be empty")
	}

	a, err := s.repo.GetByEmailAndResetCode(ctx, email, code)
	if errors.Is(err, ErrNotFound) {
		return rejectedChallenge(), nil
	}
	if err != nil {
		return nil, s.internal(ctx, OpRedeemReset, err)
	}
	if a.Reset == nil || a.Reset.ExpiredAt(s.clock.Now()) {
		return rejectedChallenge(), nil
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, s.internal(ctx, OpRedeemReset, err)
	}
	a.PasswordHash = digest
	a.Reset = nil
	a.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, s.storeFailure(ctx, OpRedeemReset, err)
	}

	s.logger.InfoContext(ctx, "password reset redeemed", "account_id", a.ID.String())
	return successResult("password updated", a), nil
}

func rejectedChallenge() *Result {
	return &Result{
		Success: false,
		Message: "invalid or expired reset code",
		Reason:  ReasonInvalidOrExpiredChallenge,
	}
}

func (s *Service) findByEmail(ctx context.Context, op, email string) (*Account, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupFailure(ctx, op, "email", email, err)
	}
	return a, nil
}

func (s *Service) lookupFailure(ctx context.Context, op, keyName, key string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code(CodeNotFound).
			With("operation", op).
			Wrapf(ErrNotFound, "no account with %s %q", keyName, key)
	}
	return s.internal(ctx, op, err)
}

// storeFailure classifies a Repository write error.
func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrDuplicate):
		field := ConflictField(err)
		return oops.Code(CodeConflict).
			With("operation", op).
			With("field", field).
			Wrapf(ErrDuplicate, "%s already registered", field)
	case errors.Is(err, ErrNotFound):
		return oops.Code(CodeNotFound).
			With("operation", op).
			Wrapf(ErrNotFound, "account no longer exists")
	default:
		return s.internal(ctx, op, err)
	}
}

// internal logs err in full and returns an opaque error that carries none of its detail.
func (s *Service) internal(ctx context.Context, op string, err error) error {
	errutil.LogErrorContext(ctx, s.logger, "account operation failed",
		oops.With("operation", op).Wrap(err))
	return oops.Code(CodeInternal).
		With("operation", op).
		Errorf("internal error, please check server logs")
}

// begin opens a span for op and returns a func that closes it with the outcome.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(*Result, error)) {
	ctx, span := s.tracer.Start(ctx, "account."+op)
	start := s.clock.Now()

	return ctx, func(res *Result, err error) {
		outcome := "ok"
		switch {
		case err != nil:
			kind := KindOf(err)
			outcome = kind.String()
			span.SetAttributes(attribute.String("account.failure", outcome))
			if kind == KindInternal {
				span.RecordError(err)
				span.SetStatus(codes.Error, "internal error")
			}
		case res != nil && !res.Success:
			outcome = "rejected"
		}
		span.SetAttributes(attribute.String("account.outcome", outcome))
		span.End()
		s.recorder.RecordOperation(op, outcome, s.clock.Since(start))
	}
}
