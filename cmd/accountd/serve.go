// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/memory"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/httpapi"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/notify"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/internal/store"
	"github.com/accountd/accountd/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account HTTP API",
		Long: `Start the HTTP API under /api/auth together with the metrics and
health endpoints. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(global.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cmd.ErrOrStderr(), nil)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

// runServe wires every component and blocks until ctx is done or a server fails.
// ready, when non-nil, receives the bound HTTP address once the API is accepting connections.
func runServe(ctx context.Context, cfg *serveConfig, logOut io.Writer, ready chan<- string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(logging.Options{
		Service: "accountd",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	}, logOut)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repo, readiness, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	hasher, err := account.NewHasher(cfg.Hasher, cfg.BcryptCost)
	if err != nil {
		return err
	}

	var obsServer *observability.Server
	serviceOpts := []account.Option{account.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, readiness, logger)
		serviceOpts = append(serviceOpts, account.WithRecorder(obsServer.Metrics()))
	}

	svc, err := account.NewService(repo, notifier, hasher, account.NewRandomChallengeGenerator(nil), serviceOpts...)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(svc,
		httpapi.WithLogger(logger),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
		httpapi.WithCORSOrigins(cfg.CORSOrigins))
	if err != nil {
		return err
	}

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, cfg, logger)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	apiErrCh := make(chan error, 1)
	go func() {
		defer close(apiErrCh)
		if err := api.Serve(ln); err != nil {
			apiErrCh <- err
		}
	}()

	logger.InfoContext(ctx, "accountd ready",
		"http_addr", ln.Addr().String(),
		"store", cfg.Store,
		"hasher", cfg.Hasher,
		"notifier", cfg.Notifier)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-apiErrCh:
		if ok && err != nil {
			serveErr = err
			errutil.LogError(logger, "http server failed", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, cfg, logger)

	logger.Info("shutdown complete")
	return serveErr
}

// openStore returns the configured repository, its readiness probe and a close func.
func openStore(ctx context.Context, cfg *serveConfig, logger *slog.Logger) (account.Repository, observability.ReadinessChecker, func(), error) {
	if cfg.Store == storeMemory {
		logger.Warn("using in-memory account store, data is lost on exit")
		return memory.NewRepository(), func(context.Context) bool { return true }, func() {}, nil
	}

	pool, err := store.OpenPool(ctx, store.PoolConfig{URL: cfg.DatabaseURL}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return postgres.NewRepository(pool), store.PoolReadiness(pool), pool.Close, nil
}

func newNotifier(cfg *serveConfig, logger *slog.Logger) (account.Notifier, error) {
	if cfg.Notifier == notifierLog {
		logger.Warn("reset codes are written to the log instead of being emailed")
		return notify.NewLogNotifier(logger.With("component", "notifier")), nil
	}
	return notify.NewBrevoNotifier(notify.BrevoConfig{
		APIKey:      cfg.BrevoAPIKey,
		BaseURL:     cfg.BrevoURL,
		SenderEmail: cfg.MailFrom,
		SenderName:  cfg.MailFromName,
	}, logger.With("component", "notifier"))
}

func stopObservability(obsServer *observability.Server, cfg *serveConfig, logger *slog.Logger) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a background server fails.
// It returns when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
