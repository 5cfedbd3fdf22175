// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

// Package httpapi exposes the account service over HTTP under /api/auth.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// DefaultRequestTimeout bounds the service call made by one request.
const DefaultRequestTimeout = 10 * time.Second

// AccountService is the account lifecycle the HTTP surface drives.
type AccountService interface {
	CreateAccount(ctx context.Context, req account.NewAccountRequest) (*account.Result, error)
	Authenticate(ctx context.Context, email, password string) (*account.Result, error)
	LookupByEmail(ctx context.Context, email string) (*account.Result, error)
	LookupByNationalID(ctx context.Context, nationalID string) (*account.Result, error)
	UpdateProfile(ctx context.Context, email string, update account.ProfileUpdate) (*account.Result, error)
	Deactivate(ctx context.Context, email string) (*account.Result, error)
	InitiatePasswordReset(ctx context.Context, email string) (*account.Result, error)
	RedeemPasswordReset(ctx context.Context, email string, code int, newPassword string) (*account.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for access and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestTimeout bounds each service call. Zero or negative keeps the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins. Empty keeps "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server is the fiber application serving the account routes.
type Server struct {
	svc       AccountService
	app       *fiber.App
	validator *validator
	logger    *slog.Logger
	timeout   time.Duration
	origins   []string
}

// NewServer builds the fiber app and registers every route.
func NewServer(svc AccountService, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("account service is required")
	}

	v, err := newValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:       svc,
		validator: v,
		logger:    slog.Default(),
		timeout:   DefaultRequestTimeout,
		origins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "accountd",
		ErrorHandler: s.handleError,
	})
	s.app.Use(requestid.New())
	s.app.Use(s.accessLog)
	s.app.Use(recoverer.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.origins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPatch, fiber.MethodDelete},
	}))

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	auth := s.app.Group("/api/auth")
	auth.Post("/signUp", s.signUp)
	auth.Post("/login", s.login)
	auth.Get("/findOneByEmail", s.findOneByEmail)
	auth.Get("/findOneByDNI", s.findOneByDNI)
	auth.Patch("/updateUser", s.updateUser)
	auth.Post("/forget-password", s.forgetPassword)
	auth.Post("/confirm-password/:email", s.confirmPassword)
	auth.Delete("/deleteUser", s.deleteUser)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server starting", "addr", addr)
	if err := s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	return nil
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server starting", "addr", ln.Addr().String())
	if err := s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", ln.Addr().String()).Wrap(err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return oops.With("operation", "shutdown_http_server").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// accessLog writes one structured line per request.
func (s *Server) accessLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case err != nil:
		status = fiber.StatusInternalServerError
	}

	level := slog.LevelInfo
	if status >= fiber.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Context(), level, "http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	return err
}

// serviceContext derives the context for one service call.
func (s *Server) serviceContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), s.timeout)
}
